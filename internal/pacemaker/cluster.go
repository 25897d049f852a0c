// internal/pacemaker/cluster.go
package pacemaker

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// Node is one cluster member as reported by crm_mon.
type Node struct {
	Name             string
	Online           bool
	Standby          bool
	DC               bool
	ResourcesRunning int
}

// Resource is one configured resource and its current placement.
type Resource struct {
	ID    string
	Agent string
	Role  string
	Node  string
}

// ClusterInfo is the cluster state snapshot the checks consume.
type ClusterInfo struct {
	Name      string
	Nodes     []Node
	Resources []Resource
}

// Cluster queries the Pacemaker tooling on the local host.
type Cluster struct {
	run Runner
}

// New returns a Cluster backed by run; a nil runner shells out to the
// real cluster tools.
func New(run Runner) *Cluster {
	if run == nil {
		run = execRunner{}
	}
	return &Cluster{run: run}
}

// ---- crm_mon XML ----

type crmMonDoc struct {
	Nodes     []crmMonNode     `xml:"nodes>node"`
	Resources []crmMonResource `xml:"resources>resource"`
	Groups    []crmMonGroup    `xml:"resources>group"`
	Clones    []crmMonGroup    `xml:"resources>clone"`
}

type crmMonNode struct {
	Name             string `xml:"name,attr"`
	Online           bool   `xml:"online,attr"`
	Standby          bool   `xml:"standby,attr"`
	IsDC             bool   `xml:"is_dc,attr"`
	ResourcesRunning int    `xml:"resources_running,attr"`
}

type crmMonResource struct {
	ID    string `xml:"id,attr"`
	Agent string `xml:"resource_agent,attr"`
	Role  string `xml:"role,attr"`
	Nodes []struct {
		Name string `xml:"name,attr"`
	} `xml:"node"`
}

type crmMonGroup struct {
	ID        string           `xml:"id,attr"`
	Resources []crmMonResource `xml:"resource"`
}

// Info returns the current cluster state: name, members and resource
// placement, with group and clone members flattened into the resource
// list.
func (c *Cluster) Info(ctx context.Context) (ClusterInfo, error) {
	name, err := c.clusterName(ctx)
	if err != nil {
		return ClusterInfo{}, err
	}

	out, err := c.run.Output(ctx, "crm_mon", "--as-xml", "--inactive")
	if err != nil {
		return ClusterInfo{}, fmt.Errorf("pacemaker: cluster state: %w", err)
	}

	var doc crmMonDoc
	if err := xml.Unmarshal(out, &doc); err != nil {
		return ClusterInfo{}, fmt.Errorf("pacemaker: parse crm_mon output: %w", err)
	}

	info := ClusterInfo{Name: name}
	for _, n := range doc.Nodes {
		info.Nodes = append(info.Nodes, Node{
			Name:             n.Name,
			Online:           n.Online,
			Standby:          n.Standby,
			DC:               n.IsDC,
			ResourcesRunning: n.ResourcesRunning,
		})
	}

	flat := doc.Resources
	for _, g := range doc.Groups {
		flat = append(flat, g.Resources...)
	}
	for _, cl := range doc.Clones {
		flat = append(flat, cl.Resources...)
	}
	for _, r := range flat {
		res := Resource{ID: r.ID, Agent: r.Agent, Role: r.Role}
		if len(r.Nodes) > 0 {
			res.Node = r.Nodes[0].Name
		}
		info.Resources = append(info.Resources, res)
	}

	return info, nil
}

func (c *Cluster) clusterName(ctx context.Context) (string, error) {
	out, err := c.run.Output(ctx, "crm_attribute", "--query", "--name", "cluster-name", "--quiet")
	if err != nil {
		return "", fmt.Errorf("pacemaker: cluster name: %w", err)
	}
	name := strings.TrimSpace(string(out))
	if name == "" {
		return "", errors.New("pacemaker: cluster name not set")
	}
	return name, nil
}

// LocalNode returns the name this host carries inside the cluster.
func (c *Cluster) LocalNode(ctx context.Context) (string, error) {
	out, err := c.run.Output(ctx, "crm_node", "--name")
	if err != nil {
		return "", fmt.Errorf("pacemaker: local node name: %w", err)
	}
	name := strings.TrimSpace(string(out))
	if name == "" {
		return "", errors.New("pacemaker: empty local node name")
	}
	return name, nil
}

// ---- CIB groups ----

type cibGroup struct {
	ID         string `xml:"id,attr"`
	Primitives []struct {
		ID string `xml:"id,attr"`
	} `xml:"primitive"`
}

type cibXPathQuery struct {
	Groups []cibGroup `xml:"group"`
}

// Groups returns the configured resource groups and their member
// primitives. A cluster without groups yields an empty map: cibadmin
// reports an empty xpath match as a failure, which is not an error
// here.
func (c *Cluster) Groups(ctx context.Context) (map[string][]string, error) {
	out, err := c.run.Output(ctx, "cibadmin", "--query", "--xpath", "//group")
	if err != nil {
		return map[string][]string{}, nil
	}
	return parseGroups(out)
}

// parseGroups handles both shapes cibadmin produces: a single bare
// <group> element, or several wrapped in an <xpath-query> element.
func parseGroups(out []byte) (map[string][]string, error) {
	groups := map[string][]string{}

	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return groups, nil
	}

	var found []cibGroup
	if bytes.HasPrefix(trimmed, []byte("<group")) {
		var g cibGroup
		if err := xml.Unmarshal(trimmed, &g); err != nil {
			return nil, fmt.Errorf("pacemaker: parse group query: %w", err)
		}
		found = append(found, g)
	} else {
		var q cibXPathQuery
		if err := xml.Unmarshal(trimmed, &q); err != nil {
			return nil, fmt.Errorf("pacemaker: parse group query: %w", err)
		}
		found = q.Groups
	}

	for _, g := range found {
		members := make([]string, 0, len(g.Primitives))
		for _, p := range g.Primitives {
			members = append(members, p.ID)
		}
		groups[g.ID] = members
	}
	return groups, nil
}

// ServiceActive reports whether a cluster daemon is running.
// systemctl exits non-zero for every state but "active", so an exec
// failure here means inactive, not a query error.
func (c *Cluster) ServiceActive(ctx context.Context, name string) bool {
	out, err := c.run.Output(ctx, "systemctl", "is-active", name)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "active"
}
