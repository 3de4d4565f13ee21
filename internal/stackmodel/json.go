package stackmodel

import (
	"encoding/json"
	"fmt"
)

// shapeEnvelope is the wire shape of one Shape entry: a kind
// discriminator plus the concrete struct's own fields as raw JSON,
// redispatched on decode.
type shapeEnvelope struct {
	Kind ShapeKind       `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes a Shape as {"kind": ..., "data": <the struct>}.
func marshalShape(s Shape) (json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(shapeEnvelope{Kind: s.Kind(), Data: data})
}

// decodeShape redispatches one envelope to its concrete Shape type.
func decodeShape(env shapeEnvelope) (Shape, error) {
	switch env.Kind {
	case KindCircle:
		var v Circle
		err := json.Unmarshal(env.Data, &v)
		return &v, err
	case KindRect:
		var v Rect
		err := json.Unmarshal(env.Data, &v)
		return &v, err
	case KindPolygon:
		var v Polygon
		err := json.Unmarshal(env.Data, &v)
		return &v, err
	case KindLine:
		var v Line
		err := json.Unmarshal(env.Data, &v)
		return &v, err
	case KindWireGuide:
		var v WireGuide
		err := json.Unmarshal(env.Data, &v)
		return &v, err
	case KindBoardOutline:
		var v BoardOutline
		err := json.Unmarshal(env.Data, &v)
		return &v, err
	case KindFootprintReference:
		var v FootprintReference
		err := json.Unmarshal(env.Data, &v)
		return &v, err
	case KindUnion:
		var v Union
		err := json.Unmarshal(env.Data, &v)
		return &v, err
	case KindSplitLine:
		var v SplitLine
		err := json.Unmarshal(env.Data, &v)
		return &v, err
	case KindText:
		var v Text
		err := json.Unmarshal(env.Data, &v)
		return &v, err
	default:
		return nil, fmt.Errorf("stackmodel: unknown shape kind %q", env.Kind)
	}
}

func marshalShapeList(shapes []Shape) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(shapes))
	for i, s := range shapes {
		raw, err := marshalShape(s)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

func unmarshalShapeList(raw []json.RawMessage) ([]Shape, error) {
	out := make([]Shape, len(raw))
	for i, r := range raw {
		var env shapeEnvelope
		if err := json.Unmarshal(r, &env); err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		s, err := decodeShape(env)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// footprintWire is Footprint's JSON wire shape, with Shapes redispatched
// through shapeEnvelope instead of encoding/json's default (which cannot
// populate an interface-typed slice on its own).
type footprintWire struct {
	ID                      string            `json:"id"`
	Name                    string            `json:"name"`
	IsBoard                 bool              `json:"is_board"`
	Shapes                  []json.RawMessage `json:"shapes"`
	BoardOutlineAssignments map[string]string `json:"board_outline_assignments"`
}

func (f Footprint) MarshalJSON() ([]byte, error) {
	shapes, err := marshalShapeList(f.Shapes)
	if err != nil {
		return nil, err
	}
	return json.Marshal(footprintWire{
		ID: f.ID, Name: f.Name, IsBoard: f.IsBoard,
		Shapes: shapes, BoardOutlineAssignments: f.BoardOutlineAssignments,
	})
}

func (f *Footprint) UnmarshalJSON(data []byte) error {
	var wire footprintWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	shapes, err := unmarshalShapeList(wire.Shapes)
	if err != nil {
		return fmt.Errorf("footprint %q: %w", wire.ID, err)
	}
	f.ID = wire.ID
	f.Name = wire.Name
	f.IsBoard = wire.IsBoard
	f.Shapes = shapes
	f.BoardOutlineAssignments = wire.BoardOutlineAssignments
	return nil
}

// unionWire mirrors footprintWire for Union's nested Shapes slice.
type unionWire struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Locked         bool                       `json:"locked,omitempty"`
	AssignedLayers map[string]LayerAssignment `json:"assigned_layers,omitempty"`
	X              string                     `json:"x"`
	Y              string                     `json:"y"`
	Angle          string                     `json:"angle"`
	Shapes         []json.RawMessage          `json:"shapes"`
}

func (u Union) MarshalJSON() ([]byte, error) {
	shapes, err := marshalShapeList(u.Shapes)
	if err != nil {
		return nil, err
	}
	return json.Marshal(unionWire{
		ID: u.ID, Name: u.Name, Locked: u.Locked, AssignedLayers: u.AssignedLayers,
		X: u.X, Y: u.Y, Angle: u.Angle, Shapes: shapes,
	})
}

func (u *Union) UnmarshalJSON(data []byte) error {
	var wire unionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	shapes, err := unmarshalShapeList(wire.Shapes)
	if err != nil {
		return fmt.Errorf("union %q: %w", wire.ID, err)
	}
	u.ID = wire.ID
	u.Name = wire.Name
	u.Locked = wire.Locked
	u.AssignedLayers = wire.AssignedLayers
	u.X, u.Y, u.Angle = wire.X, wire.Y, wire.Angle
	u.Shapes = shapes
	return nil
}
