package model

import (
	"maps"
	"time"
)

// ColorGlossary maps border colors to legend labels.
type ColorGlossary struct {
	// UseGlobal selects the application-wide glossary instead of Colors.
	UseGlobal bool              `json:"useGlobal"`
	Colors    map[string]string `json:"colors" validate:"dive,keys,hexcolor,endkeys"`
}

// Label returns the legend label for color, or "" when it has none.
func (g ColorGlossary) Label(color string) string {
	return g.Colors[color]
}

// Clone returns a deep copy of the glossary.
func (g ColorGlossary) Clone() ColorGlossary {
	out := g
	if g.Colors != nil {
		out.Colors = maps.Clone(g.Colors)
	}
	return out
}

// DefaultGlossary returns a fresh copy of the built-in glossary.
func DefaultGlossary() ColorGlossary {
	return ColorGlossary{
		UseGlobal: true,
		Colors: map[string]string{
			"#000000": "Default",
			"#DC2626": "Urgent",
			"#2563EB": "In Progress",
			"#16A34A": "Research",
			"#CA8A04": "Needs Review",
			"#9333EA": "Long-term",
			"#EA580C": "Blocked",
			"#DB2777": "Creative",
			"#0D9488": "Technical",
			"#6B7280": "On Hold",
		},
	}
}

// BoardSettings are per-board canvas display preferences.
type BoardSettings struct {
	ShowGrid        bool            `json:"showGrid"`
	SnapToGrid      bool            `json:"snapToGrid"`
	GridSize        int             `json:"gridSize" validate:"gt=0,lte=500"`
	ShowMinimap     bool            `json:"showMinimap"`
	DefaultNodeType NodeType        `json:"defaultNodeType" validate:"nodetype"`
	ConnectionStyle ConnectionStyle `json:"connectionStyle" validate:"connstyle"`
}

// DefaultBoardSettings returns the settings given to new boards.
func DefaultBoardSettings() BoardSettings {
	return BoardSettings{
		ShowGrid:        true,
		SnapToGrid:      true,
		GridSize:        20,
		ShowMinimap:     false,
		DefaultNodeType: NodeTask,
		ConnectionStyle: StyleBezier,
	}
}

// SharedAccess describes who a board is shared with.
type SharedAccess string

const (
	AccessViewer  SharedAccess = "viewer"
	AccessEditor  SharedAccess = "editor"
	AccessPrivate SharedAccess = "private"
)

// Board is a named canvas of nodes and connections.
//
// Password is a plaintext shared secret. It gates access in the UI and API
// but is not a confidentiality mechanism.
type Board struct {
	ID            string        `json:"id" validate:"required"`
	Name          string        `json:"name" validate:"max=200"`
	Description   string        `json:"description,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	Starred       bool          `json:"starred"`
	Password      string        `json:"password,omitempty"`
	SharedAccess  SharedAccess  `json:"sharedAccess,omitempty" validate:"omitempty,oneof=viewer editor private"`
	Nodes         []Node        `json:"nodes" validate:"dive"`
	Connections   []Connection  `json:"connections" validate:"dive"`
	ColorGlossary ColorGlossary `json:"colorGlossary"`
	Settings      BoardSettings `json:"settings"`
}

// IsLocked reports whether the board has a password.
func (b *Board) IsLocked() bool {
	return b.Password != ""
}

// CheckPassword reports whether password unlocks the board. Boards without a
// password accept anything.
func (b *Board) CheckPassword(password string) bool {
	return b.Password == "" || b.Password == password
}

// Node returns the node with id and its index, or nil and -1.
func (b *Board) Node(id string) (*Node, int) {
	for i := range b.Nodes {
		if b.Nodes[i].ID == id {
			return &b.Nodes[i], i
		}
	}
	return nil, -1
}

// Connection returns the connection with id and its index, or nil and -1.
func (b *Board) Connection(id string) (*Connection, int) {
	for i := range b.Connections {
		if b.Connections[i].ID == id {
			return &b.Connections[i], i
		}
	}
	return nil, -1
}

// EffectiveGlossary returns the glossary that applies to the board.
func (b *Board) EffectiveGlossary(app AppSettings) ColorGlossary {
	if b.ColorGlossary.UseGlobal {
		return app.GlobalColorGlossary
	}
	return b.ColorGlossary
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	out := b
	if b.Nodes != nil {
		out.Nodes = make([]Node, len(b.Nodes))
		for i, n := range b.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	if b.Connections != nil {
		out.Connections = make([]Connection, len(b.Connections))
		copy(out.Connections, b.Connections)
	}
	out.ColorGlossary = b.ColorGlossary.Clone()
	return out
}

// Summary is the dashboard view of a board, without its canvas contents.
type Summary struct {
	ID              string    `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	Description     string    `json:"description,omitempty" yaml:"description,omitempty"`
	Starred         bool      `json:"starred" yaml:"starred"`
	Locked          bool      `json:"locked" yaml:"locked"`
	NodeCount       int       `json:"nodeCount" yaml:"node_count"`
	ConnectionCount int       `json:"connectionCount" yaml:"connection_count"`
	CreatedAt       time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" yaml:"updated_at"`
}

// Summarize returns the summary of b.
func (b *Board) Summarize() Summary {
	return Summary{
		ID:              b.ID,
		Name:            b.Name,
		Description:     b.Description,
		Starred:         b.Starred,
		Locked:          b.IsLocked(),
		NodeCount:       len(b.Nodes),
		ConnectionCount: len(b.Connections),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// Theme is the UI color theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// AppSettings are application-wide preferences.
type AppSettings struct {
	Theme               Theme         `json:"theme" validate:"oneof=light dark"`
	DefaultView         string        `json:"defaultView" validate:"oneof=dashboard last-board"`
	DateFormat          string        `json:"dateFormat" validate:"oneof=MM/DD/YYYY DD/MM/YYYY"`
	TimeFormat          string        `json:"timeFormat" validate:"oneof=12h 24h"`
	GlobalColorGlossary ColorGlossary `json:"globalColorGlossary"`
}

// DefaultAppSettings returns the settings of a fresh installation.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Theme:               ThemeLight,
		DefaultView:         "dashboard",
		DateFormat:          "MM/DD/YYYY",
		TimeFormat:          "12h",
		GlobalColorGlossary: DefaultGlossary(),
	}
}

// Clone returns a deep copy of the settings.
func (a AppSettings) Clone() AppSettings {
	out := a
	out.GlobalColorGlossary = a.GlobalColorGlossary.Clone()
	return out
}

// State is everything the board store persists.
type State struct {
	Boards        []Board     `json:"boards"`
	ActiveBoardID string      `json:"activeBoardId"`
	AppSettings   AppSettings `json:"appSettings"`
}

// NewState returns an empty state with default application settings.
func NewState() State {
	return State{
		Boards:      []Board{},
		AppSettings: DefaultAppSettings(),
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Boards = make([]Board, len(s.Boards))
	for i, b := range s.Boards {
		out.Boards[i] = b.Clone()
	}
	out.AppSettings = s.AppSettings.Clone()
	return out
}
