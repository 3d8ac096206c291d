package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jsccast/yaml"
)

// MessageDef is a message id along with its definition.
type MessageDef struct {
	Id   string
	Data *MessageData
}

// MessageDefs is an ordered map from message id to MessageData.
//
// In YAML and JSON, MessageDefs is an object.  Decoding preserves
// the document order of that object's properties.  A repeated id
// replaces the earlier definition but keeps its position.
type MessageDefs []*MessageDef

// NewMessageDefs is a convenience for building MessageDefs in code.
// The arguments alternate between ids (strings) and *MessageData.
func NewMessageDefs(args ...interface{}) (MessageDefs, error) {
	if len(args)%2 != 0 {
		return nil, errors.New("odd number of arguments")
	}
	acc := make(MessageDefs, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		id, is := args[i].(string)
		if !is {
			return nil, fmt.Errorf("argument %d (%T) isn't an id", i, args[i])
		}
		data, is := args[i+1].(*MessageData)
		if !is {
			return nil, fmt.Errorf("argument %d (%T) isn't a %T", i+1, args[i+1], data)
		}
		acc = acc.with(id, data)
	}
	return acc, nil
}

// Get finds the definition for the given id.
func (ds MessageDefs) Get(id string) (*MessageData, bool) {
	for _, d := range ds {
		if d.Id == id {
			return d.Data, true
		}
	}
	return nil, false
}

func (ds MessageDefs) with(id string, data *MessageData) MessageDefs {
	for _, d := range ds {
		if d.Id == id {
			d.Data = data
			return ds
		}
	}
	return append(ds, &MessageDef{
		Id:   id,
		Data: data,
	})
}

func (ds *MessageDefs) UnmarshalJSON(js []byte) error {
	dec := json.NewDecoder(bytes.NewReader(js))
	t, err := dec.Token()
	if err != nil {
		return err
	}
	if t == nil {
		*ds = nil
		return nil
	}
	if d, is := t.(json.Delim); !is || d != '{' {
		return errors.New("messages should be an object")
	}

	acc := make(MessageDefs, 0, 8)
	for dec.More() {
		if t, err = dec.Token(); err != nil {
			return err
		}
		// Object keys are always strings.
		id := t.(string)
		var data MessageData
		if err = dec.Decode(&data); err != nil {
			return fmt.Errorf("message %q: %w", id, err)
		}
		acc = acc.with(id, &data)
	}
	if _, err = dec.Token(); err != nil {
		return err
	}

	*ds = acc
	return nil
}

func (ds MessageDefs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range ds {
		if 0 < i {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(d.Id)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(d.Data)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (ds *MessageDefs) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var ms yaml.MapSlice
	if err := unmarshal(&ms); err != nil {
		return err
	}
	acc := make(MessageDefs, 0, len(ms))
	for _, item := range ms {
		id := fmt.Sprint(item.Key)

		// Round-trip the value to get typed fields.  Not
		// efficient, but catalogs are small.
		bs, err := yaml.Marshal(item.Value)
		if err != nil {
			return fmt.Errorf("message %q: %w", id, err)
		}
		var data MessageData
		if err = yaml.Unmarshal(bs, &data); err != nil {
			return fmt.Errorf("message %q: %w", id, err)
		}
		acc = acc.with(id, &data)
	}
	*ds = acc
	return nil
}
