package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/account-service/internal/core/repository"
)

func indexOptions(t *testing.T, m mongo.IndexModel) options.IndexOptions {
	t.Helper()
	var opts options.IndexOptions
	for _, fn := range m.Options.List() {
		require.NoError(t, fn(&opts))
	}
	return opts
}

func TestIndexModels_Unique(t *testing.T) {
	models := indexModels(0)

	require.Len(t, models[repository.UsersCollection], 1)
	require.Len(t, models[repository.SessionsCollection], 2)

	unique := map[string]bool{}
	for _, list := range models {
		for _, m := range list {
			opts := indexOptions(t, m)
			require.NotNil(t, opts.Name)
			unique[*opts.Name] = opts.Unique != nil && *opts.Unique
		}
	}
	assert.Equal(t, map[string]bool{
		repository.IndexUserEmail:     true,
		repository.IndexSessionUserID: true,
		repository.IndexSessionToken:  true,
	}, unique)
}

func TestIndexModels_SessionTTL(t *testing.T) {
	models := indexModels(24 * time.Hour)

	sessions := models[repository.SessionsCollection]
	require.Len(t, sessions, 3)

	opts := indexOptions(t, sessions[2])
	require.NotNil(t, opts.ExpireAfterSeconds)
	assert.Equal(t, int32(86400), *opts.ExpireAfterSeconds)
	assert.Equal(t, repository.IndexSessionTTL, *opts.Name)
}

func TestPlanTTL(t *testing.T) {
	day := int32(86400)
	existing := []mongo.IndexSpecification{
		{Name: "_id_"},
		{Name: repository.IndexSessionUserID},
		{Name: repository.IndexSessionTTL, ExpireAfterSeconds: &day},
	}

	tests := []struct {
		name  string
		specs []mongo.IndexSpecification
		ttl   time.Duration
		want  ttlChange
	}{
		{"fresh collection", nil, 24 * time.Hour, ttlUnchanged},
		{"no ttl wanted", existing[:2], 0, ttlUnchanged},
		{"same expiry", existing, 24 * time.Hour, ttlUnchanged},
		{"changed expiry", existing, time.Hour, ttlModify},
		{"ttl switched off", existing, 0, ttlOrphaned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, planTTL(tt.specs, tt.ttl))
		})
	}
}
