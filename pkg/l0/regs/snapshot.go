package regs

import (
	"fmt"

	"github.com/golang/protobuf/jsonpb"
	structpb "github.com/golang/protobuf/ptypes/struct"
)

// Snapshot is a point-in-time copy of the registers plus link status,
// used for publishing and display.
type Snapshot struct {
	Outputs   uint16
	Inputs    uint32
	Analog    float64
	Connected bool
	State     string
}

// Snapshot field names in encoded form.
const (
	FieldOutputs   = "outputs"
	FieldInputs    = "inputs"
	FieldAnalog    = "analog"
	FieldConnected = "connected"
	FieldState     = "state"
)

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

// Proto converts the snapshot into a protobuf Struct.
func (s Snapshot) Proto() *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldOutputs:   numberValue(float64(s.Outputs)),
			FieldInputs:    numberValue(float64(s.Inputs)),
			FieldAnalog:    numberValue(s.Analog),
			FieldConnected: {Kind: &structpb.Value_BoolValue{BoolValue: s.Connected}},
			FieldState:     {Kind: &structpb.Value_StringValue{StringValue: s.State}},
		},
	}
}

// JSON encodes the snapshot as JSON.
func (s Snapshot) JSON() (string, error) {
	m := jsonpb.Marshaler{}
	return m.MarshalToString(s.Proto())
}

// SnapshotFromProto reverses Proto. It fails on missing or out of range
// register fields.
func SnapshotFromProto(pb *structpb.Struct) (s Snapshot, err error) {
	fields := pb.GetFields()
	number := func(name string, max float64) float64 {
		v, ok := fields[name].GetKind().(*structpb.Value_NumberValue)
		if !ok {
			if err == nil {
				err = fmt.Errorf("snapshot field %q missing or not a number", name)
			}
			return 0
		}
		if max > 0 && (v.NumberValue < 0 || v.NumberValue > max) {
			if err == nil {
				err = fmt.Errorf("snapshot field %q = %v out of range", name, v.NumberValue)
			}
			return 0
		}
		return v.NumberValue
	}
	s.Outputs = uint16(number(FieldOutputs, 0xffff))
	s.Inputs = uint32(number(FieldInputs, 0xffffffff))
	s.Analog = number(FieldAnalog, 0)
	s.Connected = fields[FieldConnected].GetBoolValue()
	s.State = fields[FieldState].GetStringValue()
	return
}

// ParseSnapshotJSON decodes JSON produced by Snapshot.JSON.
func ParseSnapshotJSON(str string) (Snapshot, error) {
	var pb structpb.Struct
	if err := jsonpb.UnmarshalString(str, &pb); err != nil {
		return Snapshot{}, err
	}
	return SnapshotFromProto(&pb)
}

// String implements fmt.Stringer.
func (s Snapshot) String() string {
	return fmt.Sprintf("outputs=%04x inputs=%08x analog=%.2f connected=%v state=%s",
		s.Outputs, s.Inputs, s.Analog, s.Connected, s.State)
}
