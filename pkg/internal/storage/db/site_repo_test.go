package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db/dbtest"
)

// TestSiteRepo_List 按 id 升序返回全部站点，Upsert 不产生重复.
func TestSiteRepo_List(t *testing.T) {
	ctx := context.Background()
	c := dbtest.New(t)
	repo := db.NewSiteRepo(c)

	sites, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sites)

	dbtest.SeedSite(t, c, "site-b", "acc-1", "b.example.com")
	dbtest.SeedSite(t, c, "site-a", "acc-2", "a.example.com")
	dbtest.SeedSite(t, c, "site-b", "acc-1", "b.example.com")

	sites, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "site-a", sites[0].ID)
	assert.Equal(t, "a.example.com", sites[0].Domain)
	assert.Equal(t, "site-b", sites[1].ID)
	assert.Equal(t, "acc-1", sites[1].AccountID)
}
