package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mwantia/goreview/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testCampaign = "campaign"

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "metadata.db"),
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// seedCommands creates a host, a beacon on it and one command per input
func seedCommands(t *testing.T, s *SQLiteStore, inputs ...string) []models.Command {
	t.Helper()
	ctx := context.Background()

	host := models.NewHost(testCampaign, "ws01")
	require.NoError(t, s.CreateHost(ctx, host))

	beacon := &models.Beacon{CampaignID: testCampaign, HostID: host.ID, Name: "beacon"}
	require.NoError(t, s.CreateBeacon(ctx, beacon))

	commands := make([]models.Command, 0, len(inputs))
	for _, input := range inputs {
		cmd := &models.Command{
			CampaignID:  testCampaign,
			BeaconID:    beacon.ID,
			OperatorID:  "operator",
			CommandType: "shell",
			Input:       input,
		}
		require.NoError(t, s.CreateCommand(ctx, cmd))
		commands = append(commands, *cmd)
	}
	return commands
}

func TestSQLiteStore_Health(t *testing.T) {
	s := setupTestStore(t)
	assert.NoError(t, s.Health(context.Background()))
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore(SQLiteConfig{})
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)", dsn("a.db"))
	assert.Equal(t, "a.db?mode=ro&_pragma=foreign_keys(1)", dsn("a.db?mode=ro"))
	assert.Equal(t, "a.db?_pragma=foreign_keys(0)", dsn("a.db?_pragma=foreign_keys(0)"))
}

func TestHostMeta_UniqueTriple(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	host := models.NewHost(testCampaign, "dc01")
	require.NoError(t, s.CreateHost(ctx, host))

	windows := "Windows"
	linux := "Linux"
	addr := "10.0.0.5"

	require.NoError(t, s.CreateHostMeta(ctx, models.NewHostMeta(host, &windows, nil)))

	err := s.CreateHostMeta(ctx, models.NewHostMeta(host, &windows, nil))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Each differing component makes a new triple
	assert.NoError(t, s.CreateHostMeta(ctx, models.NewHostMeta(host, &linux, nil)))
	assert.NoError(t, s.CreateHostMeta(ctx, models.NewHostMeta(host, &windows, &addr)))

	metas, err := s.ListHostMeta(ctx, host.ID)
	require.NoError(t, err)
	assert.Len(t, metas, 3)
}

func TestHostMeta_UnsetValuesCollide(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	host := models.NewHost(testCampaign, "dc01")
	other := models.NewHost(testCampaign, "dc02")
	require.NoError(t, s.CreateHost(ctx, host))
	require.NoError(t, s.CreateHost(ctx, other))

	require.NoError(t, s.CreateHostMeta(ctx, models.NewHostMeta(host, nil, nil)))
	assert.Error(t, s.CreateHostMeta(ctx, models.NewHostMeta(host, nil, nil)))

	// Same empty triple on another host is fine
	assert.NoError(t, s.CreateHostMeta(ctx, models.NewHostMeta(other, nil, nil)))
}

func TestHostMeta_StoresNullForOmittedFields(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	host := models.NewHost(testCampaign, "dc01")
	require.NoError(t, s.CreateHost(ctx, host))

	addr := "10.0.0.5"
	require.NoError(t, s.CreateHostMeta(ctx, models.NewHostMeta(host, nil, &addr)))

	metas, err := s.ListHostMeta(ctx, host.ID)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Nil(t, metas[0].OS)
	require.NotNil(t, metas[0].IP)
	assert.Equal(t, addr, *metas[0].IP)
}

func TestHostMeta_RequiresHost(t *testing.T) {
	s := setupTestStore(t)

	missing := models.NewHost(testCampaign, "ghost")
	err := s.CreateHostMeta(context.Background(), models.NewHostMeta(missing, nil, nil))
	assert.Error(t, err)
}

func TestDeleteHost_CascadesHostMeta(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	host := models.NewHost(testCampaign, "dc01")
	require.NoError(t, s.CreateHost(ctx, host))

	windows := "Windows"
	require.NoError(t, s.CreateHostMeta(ctx, models.NewHostMeta(host, &windows, nil)))
	require.NoError(t, s.CreateHostMeta(ctx, models.NewHostMeta(host, nil, nil)))

	require.NoError(t, s.DeleteHost(ctx, host.ID))

	metas, err := s.ListHostMeta(ctx, host.ID)
	require.NoError(t, err)
	assert.Empty(t, metas)

	_, err = s.GetHost(ctx, host.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListBeacons_Hidden(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	host := models.NewHost(testCampaign, "dc01")
	require.NoError(t, s.CreateHost(ctx, host))
	require.NoError(t, s.CreateBeacon(ctx, &models.Beacon{CampaignID: testCampaign, HostID: host.ID, Name: "a"}))
	require.NoError(t, s.CreateBeacon(ctx, &models.Beacon{CampaignID: testCampaign, HostID: host.ID, Name: "b", Hidden: true}))

	visible, err := s.ListBeacons(ctx, testCampaign, false)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	all, err := s.ListBeacons(ctx, testCampaign, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateCommandGroup_WithAnnotation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	commands := seedCommands(t, s, "whoami", "hostname")

	annotation := &models.Annotation{Text: "recon", User: "alice"}
	group, err := s.CreateCommandGroup(ctx, testCampaign,
		[]string{commands[0].ID, commands[1].ID, commands[0].ID},
		annotation, []string{"Discovery", " Discovery ", ""})
	require.NoError(t, err)

	assert.NotEmpty(t, annotation.ID)
	assert.Len(t, group.Commands, 2)
	require.Len(t, group.Annotations, 1)
	assert.Equal(t, "recon", group.Annotations[0].Text)
	assert.Equal(t, []string{"Discovery"}, group.Annotations[0].TagTexts())
}

func TestCreateCommandGroup_UnknownCommand(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	commands := seedCommands(t, s, "whoami")

	_, err := s.CreateCommandGroup(ctx, testCampaign, []string{commands[0].ID, "missing"}, nil, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = s.CreateCommandGroup(ctx, testCampaign, nil, nil, nil)
	assert.Error(t, err)

	groups, err := s.ListCommandGroups(ctx, CommandGroupFilter{CampaignID: testCampaign})
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestTags_FindOrCreate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	commands := seedCommands(t, s, "whoami", "hostname")

	_, err := s.CreateCommandGroup(ctx, testCampaign, []string{commands[0].ID}, &models.Annotation{Text: "one"}, []string{"Discovery"})
	require.NoError(t, err)
	_, err = s.CreateCommandGroup(ctx, testCampaign, []string{commands[1].ID}, &models.Annotation{Text: "two"}, []string{"Discovery", "Execution"})
	require.NoError(t, err)

	tags, err := s.ListTags(ctx, testCampaign)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Discovery", tags[0].Text)
	assert.Equal(t, "Execution", tags[1].Text)
}

func TestUpdateAnnotation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	commands := seedCommands(t, s, "whoami")

	annotation := &models.Annotation{Text: "x", User: "alice"}
	_, err := s.CreateCommandGroup(ctx, testCampaign, []string{commands[0].ID}, annotation, []string{"lateral-movement"})
	require.NoError(t, err)

	favorite := true
	updated, err := s.UpdateAnnotation(ctx, annotation.ID, AnnotationUpdate{
		Text:     "x",
		Favorite: &favorite,
		Tags:     []string{"lateral-movement", "Persistence"},
	})
	require.NoError(t, err)

	assert.True(t, updated.Favorite)
	assert.Equal(t, "alice", updated.User, "empty user keeps the stored author")
	assert.ElementsMatch(t, []string{"lateral-movement", "Persistence"}, updated.TagTexts())

	updated, err = s.UpdateAnnotation(ctx, annotation.ID, AnnotationUpdate{
		Text: "y",
		User: "bob",
	})
	require.NoError(t, err)

	assert.Equal(t, "y", updated.Text)
	assert.Equal(t, "bob", updated.User)
	assert.True(t, updated.Favorite, "nil favorite keeps the stored flag")
	assert.Empty(t, updated.Tags)
}

func TestUpdateAnnotation_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.UpdateAnnotation(context.Background(), "missing", AnnotationUpdate{Text: "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateAnnotation_UnknownGroup(t *testing.T) {
	s := setupTestStore(t)

	err := s.CreateAnnotation(context.Background(), &models.Annotation{
		CampaignID:     testCampaign,
		CommandGroupID: "missing",
	}, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteAnnotation_RemovesEmptyGroup(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	commands := seedCommands(t, s, "whoami")

	first := &models.Annotation{Text: "first"}
	group, err := s.CreateCommandGroup(ctx, testCampaign, []string{commands[0].ID}, first, []string{"Discovery"})
	require.NoError(t, err)

	second := &models.Annotation{CampaignID: testCampaign, CommandGroupID: group.ID, Text: "second"}
	require.NoError(t, s.CreateAnnotation(ctx, second, nil))

	deleted, err := s.DeleteAnnotation(ctx, testCampaign, first.ID)
	require.NoError(t, err)
	assert.Equal(t, group.ID, deleted.CommandGroupID)
	assert.False(t, deleted.GroupDeleted)

	deleted, err = s.DeleteAnnotation(ctx, testCampaign, second.ID)
	require.NoError(t, err)
	assert.True(t, deleted.GroupDeleted)

	_, err = s.GetCommandGroup(ctx, group.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Commands outlive their group
	remaining, err := s.ListCommands(ctx, testCampaign, nil, false)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDeleteAnnotation_WrongCampaign(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	commands := seedCommands(t, s, "whoami")

	annotation := &models.Annotation{Text: "x"}
	_, err := s.CreateCommandGroup(ctx, testCampaign, []string{commands[0].ID}, annotation, nil)
	require.NoError(t, err)

	_, err = s.DeleteAnnotation(ctx, "other", annotation.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAddCommandToGroup(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	commands := seedCommands(t, s, "whoami", "hostname")

	group, err := s.CreateCommandGroup(ctx, testCampaign, []string{commands[0].ID}, &models.Annotation{Text: "x"}, nil)
	require.NoError(t, err)

	group, err = s.AddCommandToGroup(ctx, group.ID, commands[1].ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{commands[0].ID, commands[1].ID}, group.CommandIDs())

	_, err = s.AddCommandToGroup(ctx, "missing", commands[1].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListCommandGroups_Filter(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	commands := seedCommands(t, s, "whoami")

	host := models.NewHost(testCampaign, "dc02")
	require.NoError(t, s.CreateHost(ctx, host))
	beacon := &models.Beacon{CampaignID: testCampaign, HostID: host.ID, Name: "other"}
	require.NoError(t, s.CreateBeacon(ctx, beacon))
	other := &models.Command{CampaignID: testCampaign, BeaconID: beacon.ID, OperatorID: "bob", CommandType: "upload"}
	require.NoError(t, s.CreateCommand(ctx, other))

	_, err := s.CreateCommandGroup(ctx, testCampaign, []string{commands[0].ID}, &models.Annotation{Text: "a"}, nil)
	require.NoError(t, err)
	_, err = s.CreateCommandGroup(ctx, testCampaign, []string{other.ID}, &models.Annotation{Text: "b"}, nil)
	require.NoError(t, err)

	all, err := s.ListCommandGroups(ctx, CommandGroupFilter{CampaignID: testCampaign})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byHost, err := s.ListCommandGroups(ctx, CommandGroupFilter{CampaignID: testCampaign, HostID: host.ID})
	require.NoError(t, err)
	require.Len(t, byHost, 1)
	assert.Equal(t, []string{other.ID}, byHost[0].CommandIDs())

	byOperator, err := s.ListCommandGroups(ctx, CommandGroupFilter{CampaignID: testCampaign, OperatorID: "operator"})
	require.NoError(t, err)
	require.Len(t, byOperator, 1)
	assert.Equal(t, []string{commands[0].ID}, byOperator[0].CommandIDs())

	byType, err := s.ListCommandGroups(ctx, CommandGroupFilter{CampaignID: testCampaign, CommandType: "upload", BeaconID: beacon.ID})
	require.NoError(t, err)
	assert.Len(t, byType, 1)
}
