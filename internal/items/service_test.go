package items_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/items"
	"github.com/gatehouse/gatehouse/internal/shared"
	_ "github.com/gatehouse/gatehouse/testing"
)

type memRepo struct {
	nextID int64
	rows   map[int64]items.Item
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, rows: make(map[int64]items.Item)}
}

func (m *memRepo) List(ctx context.Context) ([]items.Item, error) {
	out := make([]items.Item, 0, len(m.rows))
	for id := int64(1); id < m.nextID; id++ {
		if row, ok := m.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memRepo) Get(ctx context.Context, id int64) (*items.Item, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &row, nil
}

func (m *memRepo) Create(ctx context.Context, name string, price float64) (*items.Item, error) {
	now := time.Now()
	row := items.Item{ID: m.nextID, Name: name, Price: price, CreatedAt: now, UpdatedAt: now}
	m.rows[row.ID] = row
	m.nextID++
	return &row, nil
}

func (m *memRepo) Update(ctx context.Context, id int64, name string, price float64) (*items.Item, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	row.Name = name
	row.Price = price
	row.UpdatedAt = time.Now()
	m.rows[id] = row
	return &row, nil
}

func readerCtx() context.Context {
	return shared.ContextWithIdentity(context.Background(), &shared.Identity{
		PrincipalID: 2,
		Email:       "reader@x.com",
		Authorities: []string{shared.AuthorityUser, shared.PrivReadItem},
	})
}

func writerCtx() context.Context {
	return shared.ContextWithIdentity(context.Background(), &shared.Identity{
		PrincipalID: 1,
		Email:       "writer@x.com",
		Authorities: []string{shared.AuthorityAdmin, shared.PrivReadItem, shared.PrivWriteItem},
	})
}

func TestCreateListUpdate(t *testing.T) {
	repo := newMemRepo()
	service := items.NewService(repo)

	created, err := service.Create(writerCtx(), items.CreateItemRequest{Name: "widget", Price: 9.99})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "widget", created.Name)

	listed, err := service.List(readerCtx())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 9.99, listed[0].Price)

	updated, err := service.Update(writerCtx(), items.UpdateItemRequest{ID: created.ID, Name: "widget mk2", Price: 12.50})
	require.NoError(t, err)
	assert.Equal(t, "widget mk2", updated.Name)
	assert.Equal(t, 12.50, updated.Price)
}

func TestUpdateAbsentItem(t *testing.T) {
	service := items.NewService(newMemRepo())

	_, err := service.Update(writerCtx(), items.UpdateItemRequest{ID: 42, Name: "ghost", Price: 1})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestWritesRequireWritePrivilege(t *testing.T) {
	repo := newMemRepo()
	service := items.NewService(repo)

	_, err := service.Create(readerCtx(), items.CreateItemRequest{Name: "widget", Price: 1})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = service.Update(readerCtx(), items.UpdateItemRequest{ID: 1, Name: "widget", Price: 1})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Empty(t, repo.rows, "denied writes must not reach the repository")
}

func TestReadsRequireReadPrivilege(t *testing.T) {
	service := items.NewService(newMemRepo())

	bare := shared.ContextWithIdentity(context.Background(), &shared.Identity{
		PrincipalID: 3,
		Email:       "bare@x.com",
		Authorities: []string{shared.AuthorityUser},
	})
	_, err := service.List(bare)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = service.List(context.Background())
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}
