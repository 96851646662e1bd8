// Command weavectl is a small CLI over a codec-persisted Weave document:
// it loads (or creates) a store file, applies one operation, and saves
// the result back, mirroring the teacher's cli/ package's single-shot
// subcommand style but wired to the weave core's operations instead of
// a RAG pipeline's ingest/query commands.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/weavedoc/weave/codec"
	"github.com/weavedoc/weave/content"
	"github.com/weavedoc/weave/id"
	"github.com/weavedoc/weave/internal/clix"
	"github.com/weavedoc/weave/weave"
)

func loadOrCreate(path string) (*weave.Weave, error) {
	if _, err := os.Stat(path); err != nil {
		return weave.New(), nil
	}
	return codec.LoadFromFile(path)
}

func parseIDs(raw []string) ([]id.Id, error) {
	out := make([]id.Id, 0, len(raw))
	for _, s := range raw {
		parsed, err := id.Parse(s)
		if err != nil {
			return nil, clix.Fail("invalid id %q: %w", s, err)
		}
		out = append(out, parsed)
	}
	return out, nil
}

func printNode(n *weave.Node) {
	fmt.Printf("%s  active=%v  bookmarked=%v  parents=%v\n", n.ID, n.Active, n.Bookmarked, n.Parents.Slice())
}

func main() {
	var storePath string

	root := clix.App("weavectl", "Inspect and edit a weave document store")
	root.WithStringVar(&storePath, "store", "s", "path to the weave document file", "WEAVECTL_STORE", "weave.doc")

	var text string
	var parents []string
	var active bool
	addCmd := clix.New("add", "add a snippet node")
	addCmd.WithStringVar(&text, "text", "t", "snippet text", "", "")
	addCmd.WithStringSliceVar(&parents, "parent", "p", "parent node id (repeatable)", "")
	addCmd.WithBoolVar(&active, "active", "", "mark the new node active", "", false)
	addCmd.WithRun(func(args []string) error {
		w, err := loadOrCreate(storePath)
		if err != nil {
			return err
		}
		parentIDs, err := parseIDs(parents)
		if err != nil {
			return err
		}
		n := weave.NewNode(id.New(), content.NewSnippet([]byte(text), nil, nil))
		for _, p := range parentIDs {
			n.Parents.Add(p)
		}
		n.Active = active
		nodeID, ok := w.AddNode(n, nil, true)
		if !ok {
			return clix.Fail("add: rejected (invariant violation or duplicate id)")
		}
		if err := codec.SaveToFile(w, storePath); err != nil {
			return err
		}
		fmt.Println(nodeID)
		return nil
	})
	root.WithCommand(addCmd)

	var timelineIndex int
	timelineCmd := clix.New("timeline", "print an active timeline's rendered text")
	timelineCmd.WithIntVar(&timelineIndex, "index", "i", "timeline index", "", 0)
	timelineCmd.WithRun(func(args []string) error {
		w, err := loadOrCreate(storePath)
		if err != nil {
			return err
		}
		timelines := w.GetActiveTimelines()
		if timelineIndex < 0 || timelineIndex >= len(timelines) {
			return clix.Fail("timeline: index %d out of range (have %d)", timelineIndex, len(timelines))
		}
		str, _ := timelines[timelineIndex].AnnotatedString()
		fmt.Println(str)
		return nil
	})
	root.WithCommand(timelineCmd)

	listCmd := clix.New("list", "list root nodes")
	listCmd.WithRun(func(args []string) error {
		w, err := loadOrCreate(storePath)
		if err != nil {
			return err
		}
		for _, r := range w.GetRootNodes() {
			printNode(r.Node)
		}
		return nil
	})
	root.WithCommand(listCmd)

	var activateInPlace bool
	activateCmd := clix.New("activate", "activate a node")
	activateCmd.WithExactArgs(1)
	activateCmd.WithBoolVar(&activateInPlace, "in-place", "", "deactivate siblings immediately", "", true)
	activateCmd.WithRun(func(args []string) error {
		w, err := loadOrCreate(storePath)
		if err != nil {
			return err
		}
		nodeID, err := id.Parse(args[0])
		if err != nil {
			return err
		}
		w.UpdateNodeActivity(nodeID, true, activateInPlace)
		return codec.SaveToFile(w, storePath)
	})
	root.WithCommand(activateCmd)

	var bookmarkOff bool
	bookmarkCmd := clix.New("bookmark", "toggle a node's bookmark bit")
	bookmarkCmd.WithExactArgs(1)
	bookmarkCmd.WithBoolVar(&bookmarkOff, "off", "", "clear the bookmark instead of setting it", "", false)
	bookmarkCmd.WithRun(func(args []string) error {
		w, err := loadOrCreate(storePath)
		if err != nil {
			return err
		}
		nodeID, err := id.Parse(args[0])
		if err != nil {
			return err
		}
		w.UpdateNodeBookmarkedStatus(nodeID, !bookmarkOff)
		return codec.SaveToFile(w, storePath)
	})
	root.WithCommand(bookmarkCmd)

	var updateText string
	var updateIndex int
	var diffNode bool
	var mergeTail bool
	updateCmd := clix.New("update", "rewrite a timeline's text")
	updateCmd.WithStringVar(&updateText, "text", "t", "replacement text", "", "")
	updateCmd.WithIntVar(&updateIndex, "index", "i", "timeline index", "", 0)
	updateCmd.WithBoolVar(&diffNode, "diff-node", "", "wrap the edit as a Diff-content node", "", false)
	updateCmd.WithBoolVar(&mergeTail, "merge-tail", "", "fold tail edits into the trailing non-generated node", "", false)
	updateCmd.WithRun(func(args []string) error {
		w, err := loadOrCreate(storePath)
		if err != nil {
			return err
		}
		w.Update(updateIndex, []byte(updateText), time.Now().Add(2*time.Second), diffNode, mergeTail)
		return codec.SaveToFile(w, storePath)
	})
	root.WithCommand(updateCmd)

	splitCmd := clix.New("split", "split a node at a byte offset")
	splitCmd.WithExactArgs(2)
	splitCmd.WithRun(func(args []string) error {
		w, err := loadOrCreate(storePath)
		if err != nil {
			return err
		}
		nodeID, err := id.Parse(args[0])
		if err != nil {
			return err
		}
		var offset int
		if _, err := fmt.Sscanf(args[1], "%d", &offset); err != nil {
			return clix.Fail("split: invalid byte offset %q", args[1])
		}
		left, right, ok := w.SplitNode(nodeID, offset)
		if !ok {
			return clix.Fail("split: not splittable at that offset")
		}
		if err := codec.SaveToFile(w, storePath); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", left, right)
		return nil
	})
	root.WithCommand(splitCmd)

	mergeCmd := clix.New("merge", "merge a child node into its parent")
	mergeCmd.WithExactArgs(2)
	mergeCmd.WithRun(func(args []string) error {
		w, err := loadOrCreate(storePath)
		if err != nil {
			return err
		}
		left, err := id.Parse(args[0])
		if err != nil {
			return err
		}
		right, err := id.Parse(args[1])
		if err != nil {
			return err
		}
		merged, ok := w.MergeNodes(left, right)
		if !ok {
			return clix.Fail("merge: not mergeable")
		}
		if err := codec.SaveToFile(w, storePath); err != nil {
			return err
		}
		fmt.Println(merged)
		return nil
	})
	root.WithCommand(mergeCmd)

	removeCmd := clix.New("remove", "remove a node and cascade to orphaned children")
	removeCmd.WithExactArgs(1)
	removeCmd.WithRun(func(args []string) error {
		w, err := loadOrCreate(storePath)
		if err != nil {
			return err
		}
		nodeID, err := id.Parse(args[0])
		if err != nil {
			return err
		}
		if _, ok := w.RemoveNode(nodeID); !ok {
			return clix.Fail("remove: no such node")
		}
		return codec.SaveToFile(w, storePath)
	})
	root.WithCommand(removeCmd)

	var moveParents []string
	moveCmd := clix.New("move", "relink a node to a new set of parents")
	moveCmd.WithExactArgs(1)
	moveCmd.WithStringSliceVar(&moveParents, "parent", "p", "new parent node id (repeatable)", "")
	moveCmd.WithRun(func(args []string) error {
		w, err := loadOrCreate(storePath)
		if err != nil {
			return err
		}
		nodeID, err := id.Parse(args[0])
		if err != nil {
			return err
		}
		newParents, err := parseIDs(moveParents)
		if err != nil {
			return err
		}
		if ok := w.MoveNode(nodeID, newParents); !ok {
			return clix.Fail("move: rejected (would create a cycle or violate non-concatable mode)")
		}
		return codec.SaveToFile(w, storePath)
	})
	root.WithCommand(moveCmd)

	initCmd := clix.New("init", "create an empty store file")
	initCmd.WithRun(func(args []string) error {
		return codec.SaveToFile(weave.New(), storePath)
	})
	root.WithCommand(initCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "weavectl:", err)
		os.Exit(1)
	}
}
