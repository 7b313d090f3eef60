package comment

import (
	"bytes"
	"context"
	"testing"

	config "github.com/mwantia/goreview/internal/config/server"
	"github.com/mwantia/goreview/pkg/campaign"
	"github.com/mwantia/goreview/pkg/db/models"
	"github.com/mwantia/goreview/pkg/graph"
	"github.com/mwantia/goreview/pkg/log"
)

const testCampaign = "campaign"

// fakeClient records every call and answers from an in-memory graph
type fakeClient struct {
	cache   *graph.Cache
	queries *graph.QueryCache

	err          error
	deleteResult *graph.DeleteAnnotationResult

	deletes     []graph.DeleteAnnotationInput
	creates     []graph.AddCommandGroupAnnotationInput
	updates     []graph.UpdateAnnotationInput
	attaches    []graph.AddAnnotationToCommandGroupInput
	addCommands []graph.AddCommandToCommandGroupInput
	commands    []graph.CommandsQuery
	beacons     []graph.BeaconsQuery
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		cache:   graph.NewCache(),
		queries: graph.NewQueryCache(),
	}
}

func (f *fakeClient) mutations() int {
	return len(f.deletes) + len(f.creates) + len(f.updates) + len(f.attaches) + len(f.addCommands)
}

func (f *fakeClient) MutateDeleteAnnotation(ctx context.Context, input graph.DeleteAnnotationInput) (*graph.DeleteAnnotationResult, error) {
	f.deletes = append(f.deletes, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.deleteResult != nil {
		return f.deleteResult, nil
	}
	return &graph.DeleteAnnotationResult{ID: input.AnnotationID}, nil
}

func (f *fakeClient) MutateAddCommandGroupAnnotation(ctx context.Context, input graph.AddCommandGroupAnnotationInput) (*models.CommandGroup, error) {
	f.creates = append(f.creates, input)
	if f.err != nil {
		return nil, f.err
	}
	return &models.CommandGroup{ID: "new-group"}, nil
}

func (f *fakeClient) MutateUpdateAnnotation(ctx context.Context, input graph.UpdateAnnotationInput) (*models.Annotation, error) {
	f.updates = append(f.updates, input)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Annotation{ID: input.AnnotationID, Text: input.Text}, nil
}

func (f *fakeClient) MutateAddAnnotationToCommandGroup(ctx context.Context, input graph.AddAnnotationToCommandGroupInput) (*models.Annotation, error) {
	f.attaches = append(f.attaches, input)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Annotation{ID: "new-annotation", CommandGroupID: input.CommandGroupID}, nil
}

func (f *fakeClient) MutateAddCommandToCommandGroup(ctx context.Context, input graph.AddCommandToCommandGroupInput) (*models.CommandGroup, error) {
	f.addCommands = append(f.addCommands, input)
	if f.err != nil {
		return nil, f.err
	}
	return &models.CommandGroup{ID: input.CommandGroupID}, nil
}

func (f *fakeClient) QueryCommands(ctx context.Context, query graph.CommandsQuery) ([]models.Command, error) {
	f.commands = append(f.commands, query)
	return nil, nil
}

func (f *fakeClient) QueryBeacons(ctx context.Context, query graph.BeaconsQuery) ([]models.Beacon, error) {
	f.beacons = append(f.beacons, query)
	return nil, nil
}

func (f *fakeClient) Cache() *graph.Cache {
	return f.cache
}

func (f *fakeClient) Queries() *graph.QueryCache {
	return f.queries
}

type editorFixture struct {
	client   *fakeClient
	campaign *campaign.Campaign
	logs     *bytes.Buffer
	settings Settings
}

// setupEditorFixture seeds group g1 holding command c1 with annotation a1
// ("x", tagged lateral-movement, by alice)
func setupEditorFixture(t *testing.T) *editorFixture {
	t.Helper()

	client := newFakeClient()
	client.cache.Load(graph.Snapshot{
		Annotations: map[string]graph.AnnotationNode{
			"a1": {
				ID:             "a1",
				Text:           "x",
				User:           "alice",
				CommandIDs:     []string{"c1"},
				CommandGroupID: "g1",
				TagIDs:         []string{"t1"},
			},
		},
		CommandGroups: map[string]graph.CommandGroupNode{
			"g1": {ID: "g1", CommandIDs: []string{"c1"}, AnnotationIDs: []string{"a1"}},
		},
		Tags: map[string]graph.TagNode{
			"t1": {ID: "t1", Text: "lateral-movement"},
		},
	})

	return &editorFixture{
		client:   client,
		campaign: campaign.New(testCampaign),
		logs:     &bytes.Buffer{},
		settings: Settings{User: "alice"},
	}
}

func (f *editorFixture) logger() log.LoggerService {
	return log.NewWriterLoggerService("test", config.LogServerConfig{
		Level:      "DEBUG",
		NoTerminal: true,
	}, f.logs)
}

func (f *editorFixture) editor(props Props) *Editor {
	return NewEditor(f.client, f.campaign, f.settings, f.logger(), props)
}

// existing returns props for editing the seeded annotation a1
func (f *editorFixture) existing() Props {
	annotation, _ := f.client.cache.Annotation("a1")
	group, _ := f.client.cache.CommandGroup("g1")
	return Props{
		CommandID:      "c1",
		CommandGroupID: "g1",
		CommandGroup:   &group,
		Annotation:     &annotation,
	}
}
