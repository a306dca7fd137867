package sentinel

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/pkg/queue"
)

func TestAuditorCreatesAuditSourceOnFirstUse(t *testing.T) {
	sources := newFakeSourceStore()
	entries := &fakeEntryStore{}
	a := NewAuditor(sources, entries, nil)
	orgID := uuid.New()

	payload := queue.AuditEventPayload{
		UserID:         uuid.New(),
		OrganizationID: &orgID,
		Event:          "organization.created",
		Message:        "organization acme created",
		Level:          "info",
		Context:        map[string]string{"slug": "acme"},
	}
	require.NoError(t, a.Record(context.Background(), payload))

	src, err := sources.FindByOrgAndName(context.Background(), orgID, AuditSourceName)
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, models.SourceAudit, src.Type)

	require.Len(t, entries.entries, 1)
	entry := entries.entries[0]
	assert.Equal(t, orgID, entry.OrganizationID)
	assert.Equal(t, src.ID, entry.SourceID)
	assert.Equal(t, models.LevelInfo, entry.Level)

	var meta map[string]string
	require.NoError(t, json.Unmarshal(entry.Metadata, &meta))
	assert.Equal(t, "organization.created", meta["event"])
	assert.Equal(t, payload.UserID.String(), meta["user_id"])
}

func TestAuditorReusesAuditSource(t *testing.T) {
	sources := newFakeSourceStore()
	entries := &fakeEntryStore{}
	a := NewAuditor(sources, entries, nil)
	orgID := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, a.Record(context.Background(), queue.AuditEventPayload{
			UserID:         uuid.New(),
			OrganizationID: &orgID,
			Event:          "project.created",
			Message:        "project created",
		}))
	}

	list, err := sources.ListByOrg(context.Background(), orgID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Len(t, entries.entries, 3)
}

func TestAuditorDropsEventsWithoutOrganization(t *testing.T) {
	sources := newFakeSourceStore()
	entries := &fakeEntryStore{}
	a := NewAuditor(sources, entries, nil)

	require.NoError(t, a.Record(context.Background(), queue.AuditEventPayload{
		UserID:  uuid.New(),
		Event:   "organization.deleted",
		Message: "organization deleted",
	}))

	assert.Empty(t, sources.sources)
	assert.Empty(t, entries.entries)
}

func TestAuditorDefaultsUnknownLevel(t *testing.T) {
	sources := newFakeSourceStore()
	entries := &fakeEntryStore{}
	a := NewAuditor(sources, entries, nil)
	orgID := uuid.New()

	require.NoError(t, a.Record(context.Background(), queue.AuditEventPayload{
		UserID:         uuid.New(),
		OrganizationID: &orgID,
		Event:          "x",
		Message:        "m",
		Level:          "critical",
	}))

	require.Len(t, entries.entries, 1)
	assert.Equal(t, models.LevelInfo, entries.entries[0].Level)
}
