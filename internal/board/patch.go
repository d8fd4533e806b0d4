package board

import (
	"fmt"

	"github.com/Iron-Ham/mindnode/internal/errors"
	"github.com/Iron-Ham/mindnode/internal/model"
)

// Patch is a partial board update. Nil fields are left unchanged; non-nil
// fields replace the board's value whole, so nested objects such as the
// color glossary are never merged.
type Patch struct {
	Name          *string              `json:"name,omitempty" validate:"omitempty,max=200"`
	Description   *string              `json:"description,omitempty"`
	Starred       *bool                `json:"starred,omitempty"`
	Password      *string              `json:"password,omitempty"`
	SharedAccess  *model.SharedAccess  `json:"sharedAccess,omitempty" validate:"omitempty,oneof=viewer editor private"`
	Nodes         *[]model.Node        `json:"nodes,omitempty" validate:"-"`
	Connections   *[]model.Connection  `json:"connections,omitempty" validate:"-"`
	ColorGlossary *model.ColorGlossary `json:"colorGlossary,omitempty"`
	Settings      *model.BoardSettings `json:"settings,omitempty"`
}

// validate checks the patch and every node and connection it carries.
func (p Patch) validate() error {
	if err := model.Validate(p); err != nil {
		return err
	}
	if p.Nodes != nil {
		if err := validateNodes(*p.Nodes); err != nil {
			return err
		}
	}
	if p.Connections != nil {
		return validateConnections(*p.Connections)
	}
	return nil
}

// Fields returns the JSON names of the fields the patch sets.
func (p Patch) Fields() []string {
	var f []string
	add := func(set bool, name string) {
		if set {
			f = append(f, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Description != nil, "description")
	add(p.Starred != nil, "starred")
	add(p.Password != nil, "password")
	add(p.SharedAccess != nil, "sharedAccess")
	add(p.Nodes != nil, "nodes")
	add(p.Connections != nil, "connections")
	add(p.ColorGlossary != nil, "colorGlossary")
	add(p.Settings != nil, "settings")
	return f
}

// Empty reports whether the patch sets no field.
func (p Patch) Empty() bool {
	return len(p.Fields()) == 0
}

// apply copies the set fields onto b.
func (p Patch) apply(b *model.Board) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Starred != nil {
		b.Starred = *p.Starred
	}
	if p.Password != nil {
		b.Password = *p.Password
	}
	if p.SharedAccess != nil {
		b.SharedAccess = *p.SharedAccess
	}
	if p.Nodes != nil {
		b.Nodes = make([]model.Node, len(*p.Nodes))
		for i, n := range *p.Nodes {
			b.Nodes[i] = n.Clone()
		}
	}
	if p.Connections != nil {
		b.Connections = append([]model.Connection{}, *p.Connections...)
	}
	if p.ColorGlossary != nil {
		b.ColorGlossary = p.ColorGlossary.Clone()
	}
	if p.Settings != nil {
		b.Settings = *p.Settings
	}
}

// SettingsPatch is a partial update of the application settings.
type SettingsPatch struct {
	Theme               *model.Theme         `json:"theme,omitempty"`
	DefaultView         *string              `json:"defaultView,omitempty"`
	DateFormat          *string              `json:"dateFormat,omitempty"`
	TimeFormat          *string              `json:"timeFormat,omitempty"`
	GlobalColorGlossary *model.ColorGlossary `json:"globalColorGlossary,omitempty"`
}

func (p SettingsPatch) apply(a *model.AppSettings) {
	if p.Theme != nil {
		a.Theme = *p.Theme
	}
	if p.DefaultView != nil {
		a.DefaultView = *p.DefaultView
	}
	if p.DateFormat != nil {
		a.DateFormat = *p.DateFormat
	}
	if p.TimeFormat != nil {
		a.TimeFormat = *p.TimeFormat
	}
	if p.GlobalColorGlossary != nil {
		a.GlobalColorGlossary = p.GlobalColorGlossary.Clone()
	}
}

func (p SettingsPatch) validate(current model.AppSettings) error {
	next := current.Clone()
	p.apply(&next)
	return model.Validate(next)
}

func validateNodes(nodes []model.Node) error {
	for i := range nodes {
		if err := model.Validate(nodes[i]); err != nil {
			return prefixField(err, "nodes", i)
		}
	}
	return nil
}

func validateConnections(conns []model.Connection) error {
	for i := range conns {
		if err := model.Validate(conns[i]); err != nil {
			return prefixField(err, "connections", i)
		}
	}
	return nil
}

// checkEndpoints rejects a connection whose source or target is not one of
// nodes. Boards loaded with dangling connections stay readable; only writes
// that carry connections are checked.
func checkEndpoints(nodes []model.Node, conns []model.Connection) error {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	for i, c := range conns {
		if !ids[c.Source] {
			return errors.NewValidationError("connection source is not a node on the board").
				WithField(fmt.Sprintf("connections[%d].source", i)).WithValue(c.Source)
		}
		if !ids[c.Target] {
			return errors.NewValidationError("connection target is not a node on the board").
				WithField(fmt.Sprintf("connections[%d].target", i)).WithValue(c.Target)
		}
	}
	return nil
}

// prefixField qualifies a validation error's field with its list position.
func prefixField(err error, list string, i int) error {
	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		return ve.WithField(fmt.Sprintf("%s[%d].%s", list, i, ve.Field))
	}
	return err
}
