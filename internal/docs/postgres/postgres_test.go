package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"anjo/internal/docs"
	"anjo/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	s, err := NewWithDB(db, log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_InsertList(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "u1", docs.Transactions, docs.Document{ID: "t1", Data: []byte(`{"id":"t1"}`)}))
	require.NoError(t, s.Insert(ctx, "u1", docs.Transactions, docs.Document{ID: "t2", Data: []byte(`{"id":"t2"}`)}))
	require.NoError(t, s.Insert(ctx, "u2", docs.Transactions, docs.Document{ID: "t3", Data: []byte(`{"id":"t3"}`)}))
	require.NoError(t, s.Insert(ctx, "u1", docs.Goals, docs.Document{ID: "g1", Data: []byte(`{"id":"g1"}`)}))

	got, err := s.List(ctx, "u1", docs.Transactions)
	require.NoError(t, err)
	require.Len(t, got, 2)
	ids := []string{got[0].ID, got[1].ID}
	assert.ElementsMatch(t, []string{"t1", "t2"}, ids)
	assert.JSONEq(t, `{"id":"t1"}`, string(findDoc(got, "t1").Data))

	err = s.Insert(ctx, "u1", docs.Transactions, docs.Document{ID: "t1", Data: []byte(`{}`)})
	assert.Error(t, err, "duplicate primary key must fail")
}

func TestStore_UpdateDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, "u1", docs.Accounts, docs.Document{ID: "a", Data: []byte(`{"balance":0}`)}))

	require.NoError(t, s.Update(ctx, "u1", docs.Accounts, docs.Document{ID: "a", Data: []byte(`{"balance":100}`)}))
	got, err := s.List(ctx, "u1", docs.Accounts)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"balance":100}`, string(got[0].Data))

	err = s.Update(ctx, "u2", docs.Accounts, docs.Document{ID: "a", Data: []byte(`{}`)})
	assert.True(t, errors.Is(err, docs.ErrNotFound), "another owner's document is not visible")

	require.NoError(t, s.Delete(ctx, "u1", docs.Accounts, "a"))
	assert.True(t, errors.Is(s.Delete(ctx, "u1", docs.Accounts, "a"), docs.ErrNotFound))
	got, err = s.List(ctx, "u1", docs.Accounts)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Ping(t *testing.T) {
	s := setupStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func findDoc(list []docs.Document, id string) docs.Document {
	for _, d := range list {
		if d.ID == id {
			return d
		}
	}
	return docs.Document{}
}
