// internal/check/checker.go
package check

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/xymon-checks/internal/pacemaker"
	"github.com/tamzrod/xymon-checks/internal/xymon"
)

// Source is the slice of cluster state the checker consumes.
type Source interface {
	Info(ctx context.Context) (pacemaker.ClusterInfo, error)
	LocalNode(ctx context.Context) (string, error)
	Groups(ctx context.Context) (map[string][]string, error)
	ServiceActive(ctx context.Context, name string) bool
}

// Checker turns the state of the local cluster member into one Xymon
// report.
type Checker struct {
	Source         Source
	RequiredGroups map[string][]string // node -> groups that must run there
	Daemons        []string            // empty disables the daemon section
	ScriptName     string
	ScriptVersion  string
}

// BuildReport queries the cluster and fills msg with the report
// sections. Severity moves only through the ratchet, so each section
// degrades the overall report independently of the others.
func (c *Checker) BuildReport(ctx context.Context, msg *xymon.Message) error {
	var (
		info      pacemaker.ClusterInfo
		localNode string
		groups    map[string][]string
	)
	daemonUp := make([]bool, len(c.Daemons))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = c.Source.Info(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		localNode, err = c.Source.LocalNode(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		groups, err = c.Source.Groups(gctx)
		return err
	})
	for i, name := range c.Daemons {
		i, name := i, name
		g.Go(func() error {
			daemonUp[i] = c.Source.ServiceActive(gctx, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	msg.SetTitle(fmt.Sprintf("Pacemaker cluster %q", info.Name))

	nodeResources := resourcesOn(info.Resources, localNode)

	// Node status. A node whose required resource groups have moved
	// elsewhere counts as degraded even while it is online.
	nodeStatus := "offline"
	if n := findNode(info.Nodes, localNode); n != nil && n.Online {
		nodeStatus = "online"
	}
	if !requiredGroupsSatisfied(c.RequiredGroups[localNode], nodeResources, groups) {
		nodeStatus += " (resources have switched)"
	}
	nodeToken := xymon.StatusCritical
	if nodeStatus == "online" {
		nodeToken = xymon.StatusOK
	}
	msg.AddSection("Node Status", fmt.Sprintf("%s - %s %s", localNode, nodeStatus, nodeToken))
	if err := msg.RaiseSeverity(nodeToken); err != nil {
		return err
	}

	names := make([]string, 0, len(info.Nodes))
	for _, n := range info.Nodes {
		names = append(names, n.Name)
	}
	sort.Strings(names)
	msg.AddSection("Cluster Nodes", strings.Join(names, ", "))

	// Resources placed on this node, one line per resource.
	running := 0
	if n := findNode(info.Nodes, localNode); n != nil {
		running = n.ResourcesRunning
	}
	var body strings.Builder
	fmt.Fprintf(&body, "%d resources running:\n\n", running)
	resToken := xymon.StatusOK
	for _, r := range nodeResources {
		token := xymon.StatusOK
		if r.Role != "Started" {
			token = xymon.StatusCritical
			resToken = xymon.StatusCritical
		}
		fmt.Fprintf(&body, " %s %-22s %s\n", token, r.ID, r.Agent)
	}
	msg.AddSection("Cluster Resources", strings.TrimRight(body.String(), "\n"))
	if err := msg.RaiseSeverity(resToken); err != nil {
		return err
	}

	if len(c.Daemons) > 0 {
		var body strings.Builder
		daemonToken := xymon.StatusOK
		for i, name := range c.Daemons {
			token, state := xymon.StatusOK, "active"
			if !daemonUp[i] {
				token, state = xymon.StatusCritical, "inactive"
				daemonToken = xymon.StatusCritical
			}
			fmt.Fprintf(&body, " %s service %-14s %s\n", token, name, state)
		}
		msg.AddSection("Daemon Status", body.String())
		if err := msg.RaiseSeverity(daemonToken); err != nil {
			return err
		}
	}

	msg.SetFooter(c.ScriptName, c.ScriptVersion)
	return nil
}

func findNode(nodes []pacemaker.Node, name string) *pacemaker.Node {
	for i := range nodes {
		if nodes[i].Name == name {
			return &nodes[i]
		}
	}
	return nil
}

func resourcesOn(resources []pacemaker.Resource, node string) []pacemaker.Resource {
	var out []pacemaker.Resource
	for _, r := range resources {
		if r.Node == node {
			out = append(out, r)
		}
	}
	return out
}

// requiredGroupsSatisfied reports whether every group listed for this
// node has at least one member resource currently placed here. An
// empty requirement list is always satisfied.
func requiredGroupsSatisfied(required []string, nodeResources []pacemaker.Resource, groups map[string][]string) bool {
	if len(required) == 0 {
		return true
	}

	onNode := make(map[string]bool, len(nodeResources))
	for _, r := range nodeResources {
		onNode[r.ID] = true
	}

	activeHere := map[string]bool{}
	for group, members := range groups {
		for _, m := range members {
			if onNode[m] {
				activeHere[group] = true
				break
			}
		}
	}

	for _, g := range required {
		if !activeHere[g] {
			return false
		}
	}
	return true
}
