// Package graph projects the analysis graph payload into a render-ready model.
package graph

import (
	"symptom-checker/internal/common/logger"
	"symptom-checker/internal/common/metrics"
	"symptom-checker/internal/models"
)

const (
	DiseaseNodeSize = 10
	SymptomNodeSize = 5

	ColorEmergencyDisease = "#dc2626"
	ColorDisease          = "#ef4444"
	ColorInputSymptom     = "#10b981"
	ColorOther            = "#3b82f6"

	LinkColor        = "rgba(160, 174, 192, 0.6)"
	DefaultLinkWidth = 1.0
)

type RenderNode struct {
	ID         string
	Label      string
	Kind       models.NodeKind
	IsInput    bool
	Emergency  bool
	Color      string
	Size       int
	Attributes map[string]interface{}
}

type RenderLink struct {
	Source       string
	Target       string
	Relationship string
	Color        string
	Width        float64
	Attributes   map[string]interface{}
}

// RenderGraph is the projected graph. A nil *RenderGraph means no graph was
// ever requested; a non-nil graph with no nodes is the explicit empty graph.
type RenderGraph struct {
	Nodes        []RenderNode
	Links        []RenderLink
	DroppedLinks int
}

func (g *RenderGraph) Empty() bool {
	return g != nil && len(g.Nodes) == 0
}

// Project resolves node and link visual attributes. Links that reference a
// missing node are dropped and counted; duplicate node ids keep the first.
func Project(payload *models.GraphPayload) *RenderGraph {
	out := &RenderGraph{
		Nodes: []RenderNode{},
		Links: []RenderLink{},
	}
	if payload == nil {
		return out
	}

	seen := make(map[string]struct{}, len(payload.Nodes))
	for _, n := range payload.Nodes {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out.Nodes = append(out.Nodes, projectNode(n))
	}

	for _, l := range payload.Links {
		_, okSource := seen[l.Source]
		_, okTarget := seen[l.Target]
		if !okSource || !okTarget {
			out.DroppedLinks++
			continue
		}
		out.Links = append(out.Links, RenderLink{
			Source:       l.Source,
			Target:       l.Target,
			Relationship: l.Relationship,
			Color:        LinkColor,
			Width:        linkWidth(l.Attributes),
			Attributes:   l.Attributes,
		})
	}

	return out
}

func projectNode(n models.GraphNode) RenderNode {
	emergency := models.BoolAttr(n.Attributes, "emergency")
	rn := RenderNode{
		ID:         n.ID,
		Label:      n.Label,
		Kind:       n.Kind,
		IsInput:    n.IsInput,
		Emergency:  emergency,
		Size:       SymptomNodeSize,
		Attributes: n.Attributes,
	}

	switch {
	case n.Kind == models.NodeKindDisease && emergency:
		rn.Color = ColorEmergencyDisease
	case n.Kind == models.NodeKindDisease:
		rn.Color = ColorDisease
	case n.IsInput:
		rn.Color = ColorInputSymptom
	default:
		rn.Color = ColorOther
	}
	if n.Kind == models.NodeKindDisease {
		rn.Size = DiseaseNodeSize
	}
	return rn
}

func linkWidth(attrs map[string]interface{}) float64 {
	if severity, ok := models.NumberAttr(attrs, "severity"); ok && severity > 0 {
		return severity
	}
	return DefaultLinkWidth
}

// Projector wraps Project with logging and metrics.
type Projector struct {
	logger logger.Logger
}

func NewProjector(log logger.Logger) *Projector {
	return &Projector{logger: logger.OrNop(log).With(map[string]interface{}{"component": "graph-projector"})}
}

func (p *Projector) Project(payload *models.GraphPayload) *RenderGraph {
	g := Project(payload)
	if g.DroppedLinks > 0 {
		metrics.GraphLinksDropped.Add(float64(g.DroppedLinks))
		p.logger.Warn("Dropped graph links with missing endpoints", map[string]interface{}{
			"dropped": g.DroppedLinks,
			"nodes":   len(g.Nodes),
			"links":   len(g.Links),
		})
	}
	return g
}
