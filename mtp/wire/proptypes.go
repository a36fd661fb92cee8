package wire

import "io"

const (
	DPFF_None        uint8 = 0x00
	DPFF_Range       uint8 = 0x01
	DPFF_Enumeration uint8 = 0x02
)

const (
	DPGS_Get    uint8 = 0x00
	DPGS_GetSet uint8 = 0x01
)

// PropDescRangeForm is the form data for a property descriptor with
// FormFlag == DPFF_Range.
type PropDescRangeForm struct {
	MinimumValue DataDependentType
	MaximumValue DataDependentType
	StepSize     DataDependentType
}

// PropDescEnumForm is the form data for a property descriptor with
// FormFlag == DPFF_Enumeration.
type PropDescEnumForm struct {
	Values []DataDependentType
}

func decodePropDescForm(r io.Reader, hint DecodeHints, formFlag uint8) (interface{}, error) {
	switch formFlag {
	case DPFF_Range:
		f := PropDescRangeForm{}
		err := decodeWithSelector(r, &f, hint)
		return &f, err
	case DPFF_Enumeration:
		f := PropDescEnumForm{}
		err := decodeWithSelector(r, &f, hint)
		return &f, err
	}
	return nil, nil
}

// DevicePropDescFixed is the fixed-width prefix of a device property
// descriptor; Form (if any) follows, shaped by FormFlag.
type DevicePropDescFixed struct {
	DevicePropertyCode  uint16
	DataType            DataTypeCode
	GetSet              uint8
	FactoryDefaultValue DataDependentType
	CurrentValue        DataDependentType
	FormFlag            uint8
}

type DevicePropDesc struct {
	DevicePropDescFixed
	Form interface{}
}

func (pd *DevicePropDesc) Decode(r io.Reader) error {
	if err := Decode(r, &pd.DevicePropDescFixed); err != nil {
		return err
	}
	form, err := decodePropDescForm(r, DecodeHints{Selector: pd.DataType, PropDesc: true}, pd.FormFlag)
	pd.Form = form
	return err
}

func (pd *DevicePropDesc) Encode(w io.Writer) error {
	if err := Encode(w, &pd.DevicePropDescFixed); err != nil {
		return err
	}
	return Encode(w, pd.Form)
}

// ObjectPropDescFixed is the fixed-width prefix of an object property
// descriptor; Form (if any) follows, shaped by FormFlag.
type ObjectPropDescFixed struct {
	ObjectPropertyCode  uint16
	DataType            DataTypeCode
	GetSet              uint8
	FactoryDefaultValue DataDependentType
	GroupCode           uint32
	FormFlag            uint8
}

type ObjectPropDesc struct {
	ObjectPropDescFixed
	Form interface{}
}

func (pd *ObjectPropDesc) Decode(r io.Reader) error {
	if err := Decode(r, &pd.ObjectPropDescFixed); err != nil {
		return err
	}
	form, err := decodePropDescForm(r, DecodeHints{Selector: pd.DataType, PropDesc: true}, pd.FormFlag)
	pd.Form = form
	return err
}

func (pd *ObjectPropDesc) Encode(w io.Writer) error {
	if err := Encode(w, &pd.ObjectPropDescFixed); err != nil {
		return err
	}
	return Encode(w, pd.Form)
}

// Uint32Array and Uint16Array wrap a counted array as a standalone decodable
// value, used when a raw property value is an array rather than a struct
// field.
type Uint32Array struct {
	Values []uint32
}

type Uint16Array struct {
	Values []uint16
}

type Uint64Value struct {
	Value uint64
}

type StringValue struct {
	Value string
}
