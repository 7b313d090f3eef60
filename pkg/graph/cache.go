package graph

import (
	"slices"
	"sync"

	"github.com/mwantia/goreview/pkg/db/models"
)

// AnnotationNode is the cached projection of an annotation
type AnnotationNode struct {
	ID             string
	Text           string
	Favorite       *bool
	User           string
	CommandIDs     []string
	CommandGroupID string
	TagIDs         []string
}

// CommandGroupNode is the cached projection of a command group
type CommandGroupNode struct {
	ID            string
	CommandIDs    []string
	AnnotationIDs []string
}

type TagNode struct {
	ID   string
	Text string
}

type CommandNode struct {
	ID       string
	BeaconID string
	Input    string
	Hidden   bool
}

type BeaconNode struct {
	ID     string
	HostID string
	Name   string
	Hidden bool
}

// Cache is the normalized object graph shared by every editor of a campaign.
// Writes are last-write-wins.
type Cache struct {
	mutex sync.RWMutex

	annotations   map[string]AnnotationNode
	commandGroups map[string]CommandGroupNode
	tags          map[string]TagNode
	commands      map[string]CommandNode
	beacons       map[string]BeaconNode
}

func NewCache() *Cache {
	return &Cache{
		annotations:   make(map[string]AnnotationNode),
		commandGroups: make(map[string]CommandGroupNode),
		tags:          make(map[string]TagNode),
		commands:      make(map[string]CommandNode),
		beacons:       make(map[string]BeaconNode),
	}
}

// Snapshot is an immutable copy of the cache at one point in time
type Snapshot struct {
	Annotations   map[string]AnnotationNode
	CommandGroups map[string]CommandGroupNode
	Tags          map[string]TagNode
	Commands      map[string]CommandNode
	Beacons       map[string]BeaconNode
}

func (c *Cache) Snapshot() Snapshot {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	snap := Snapshot{
		Annotations:   make(map[string]AnnotationNode, len(c.annotations)),
		CommandGroups: make(map[string]CommandGroupNode, len(c.commandGroups)),
		Tags:          make(map[string]TagNode, len(c.tags)),
		Commands:      make(map[string]CommandNode, len(c.commands)),
		Beacons:       make(map[string]BeaconNode, len(c.beacons)),
	}
	for id, a := range c.annotations {
		a.CommandIDs = slices.Clone(a.CommandIDs)
		a.TagIDs = slices.Clone(a.TagIDs)
		if a.Favorite != nil {
			fav := *a.Favorite
			a.Favorite = &fav
		}
		snap.Annotations[id] = a
	}
	for id, g := range c.commandGroups {
		g.CommandIDs = slices.Clone(g.CommandIDs)
		g.AnnotationIDs = slices.Clone(g.AnnotationIDs)
		snap.CommandGroups[id] = g
	}
	for id, t := range c.tags {
		snap.Tags[id] = t
	}
	for id, cmd := range c.commands {
		snap.Commands[id] = cmd
	}
	for id, b := range c.beacons {
		snap.Beacons[id] = b
	}
	return snap
}

// Annotation looks up a single annotation without copying the whole cache
func (c *Cache) Annotation(id string) (AnnotationNode, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	a, ok := c.annotations[id]
	return a, ok
}

func (c *Cache) CommandGroup(id string) (CommandGroupNode, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	g, ok := c.commandGroups[id]
	return g, ok
}

// PutAnnotation stores the annotation and its tags, and links it into its group
func (c *Cache) PutAnnotation(annotation *models.Annotation, commandIDs []string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.putAnnotation(annotation, commandIDs)
}

// PutCommandGroup stores the group together with its nested annotations
func (c *Cache) PutCommandGroup(group *models.CommandGroup) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	commandIDs := group.CommandIDs()
	c.commandGroups[group.ID] = CommandGroupNode{
		ID:         group.ID,
		CommandIDs: commandIDs,
	}

	// The store always preloads annotations, so they replace the cached links
	for i := range group.Annotations {
		c.putAnnotation(&group.Annotations[i], commandIDs)
	}
}

func (c *Cache) PutTags(tags []models.Tag) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, t := range tags {
		c.tags[t.ID] = TagNode{ID: t.ID, Text: t.Text}
	}
}

func (c *Cache) PutCommands(commands []models.Command) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, cmd := range commands {
		c.commands[cmd.ID] = CommandNode{
			ID:       cmd.ID,
			BeaconID: cmd.BeaconID,
			Input:    cmd.Input,
			Hidden:   cmd.Hidden,
		}
	}
}

func (c *Cache) PutBeacons(beacons []models.Beacon) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, b := range beacons {
		c.beacons[b.ID] = BeaconNode{
			ID:     b.ID,
			HostID: b.HostID,
			Name:   b.Name,
			Hidden: b.Hidden,
		}
	}
}

// RemoveAnnotation drops the annotation and unlinks it from every group
func (c *Cache) RemoveAnnotation(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.annotations, id)
	for gid, g := range c.commandGroups {
		if i := slices.Index(g.AnnotationIDs, id); i >= 0 {
			g.AnnotationIDs = slices.Delete(slices.Clone(g.AnnotationIDs), i, i+1)
			c.commandGroups[gid] = g
		}
	}
}

func (c *Cache) RemoveCommandGroup(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.commandGroups, id)
}

func (c *Cache) putAnnotation(annotation *models.Annotation, commandIDs []string) {
	favorite := annotation.Favorite
	node := AnnotationNode{
		ID:             annotation.ID,
		Text:           annotation.Text,
		Favorite:       &favorite,
		User:           annotation.User,
		CommandIDs:     slices.Clone(commandIDs),
		CommandGroupID: annotation.CommandGroupID,
		TagIDs:         make([]string, 0, len(annotation.Tags)),
	}
	for _, t := range annotation.Tags {
		c.tags[t.ID] = TagNode{ID: t.ID, Text: t.Text}
		node.TagIDs = append(node.TagIDs, t.ID)
	}
	if node.CommandIDs == nil {
		if existing, ok := c.annotations[annotation.ID]; ok {
			node.CommandIDs = existing.CommandIDs
		} else if g, ok := c.commandGroups[annotation.CommandGroupID]; ok {
			node.CommandIDs = slices.Clone(g.CommandIDs)
		}
	}
	c.annotations[annotation.ID] = node

	if g, ok := c.commandGroups[annotation.CommandGroupID]; ok && !slices.Contains(g.AnnotationIDs, annotation.ID) {
		g.AnnotationIDs = append(slices.Clone(g.AnnotationIDs), annotation.ID)
		c.commandGroups[annotation.CommandGroupID] = g
	}
}

// Load merges the nodes of a snapshot into the cache
func (c *Cache) Load(snap Snapshot) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for id, a := range snap.Annotations {
		c.annotations[id] = a
	}
	for id, g := range snap.CommandGroups {
		c.commandGroups[id] = g
	}
	for id, t := range snap.Tags {
		c.tags[id] = t
	}
	for id, cmd := range snap.Commands {
		c.commands[id] = cmd
	}
	for id, b := range snap.Beacons {
		c.beacons[id] = b
	}
}
