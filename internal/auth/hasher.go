package auth

import "golang.org/x/crypto/bcrypt"

// dummyDigest is a valid bcrypt digest compared against when the account
// does not exist, so the unknown-identity path costs roughly the same as a
// wrong-password check.
const dummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Hasher wraps the one-way password hash scheme. bcrypt embeds a per-call
// random salt in the digest, so two hashes of the same secret differ, and
// its compare is constant-time with respect to secret content.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher at the default bcrypt cost.
func NewHasher() Hasher {
	return Hasher{cost: bcrypt.DefaultCost}
}

// Hash derives a salted digest from the secret.
func (h Hasher) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether the secret matches the digest.
func (h Hasher) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
