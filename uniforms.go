package gekko

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
)

// uniformBinding is one uniform buffer's contents, padded to 16 bytes.
type uniformBinding struct {
	binding uint32
	data    []byte
}

// collectUniforms packs every `gekko:"uniform"` field of a struct (or a
// pointer to one) ordered by binding. Embedded structs are searched too.
func collectUniforms(v any) ([]uniformBinding, error) {
	if v == nil {
		return nil, nil
	}
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("uniform source must be a struct, got %s", val.Kind())
	}

	var res []uniformBinding
	if err := collectUniformFields(val, &res); err != nil {
		return nil, err
	}

	slices.SortFunc(res, func(a, b uniformBinding) int { return int(a.binding) - int(b.binding) })
	for i := 1; i < len(res); i++ {
		if res[i].binding == res[i-1].binding {
			return nil, fmt.Errorf("duplicate uniform binding %d", res[i].binding)
		}
	}
	return res, nil
}

func collectUniformFields(val reflect.Value, res *[]uniformBinding) error {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		fieldDecl := t.Field(i)
		if fieldDecl.Anonymous && fieldDecl.Type.Kind() == reflect.Struct && fieldDecl.Tag.Get("gekko") == "" {
			if err := collectUniformFields(val.Field(i), res); err != nil {
				return err
			}
			continue
		}
		if "uniform" != fieldDecl.Tag.Get("gekko") {
			continue
		}

		binding, err := strconv.Atoi(fieldDecl.Tag.Get("binding"))
		if err != nil {
			return fmt.Errorf("uniform %s: bad binding tag: %w", fieldDecl.Name, err)
		}

		buf := new(bytes.Buffer)
		if err := writeUniformBytes(val.Field(i), buf); err != nil {
			return fmt.Errorf("uniform %s: %w", fieldDecl.Name, err)
		}
		*res = append(*res, uniformBinding{
			binding: uint32(binding),
			data:    padTo16(buf.Bytes()),
		})
	}
	return nil
}

func writeUniformBytes(field reflect.Value, buf *bytes.Buffer) error {
	switch field.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < field.Len(); i++ {
			if err := writeUniformBytes(field.Index(i), buf); err != nil {
				return err
			}
		}

	case reflect.Struct:
		for i := 0; i < field.NumField(); i++ {
			if err := writeUniformBytes(field.Field(i), buf); err != nil {
				return err
			}
		}

	case reflect.Bool:
		var b uint32
		if field.Bool() {
			b = 1
		}
		return binary.Write(buf, binary.LittleEndian, b)

	case reflect.Uint32, reflect.Int32, reflect.Float32:
		if err := binary.Write(buf, binary.LittleEndian, field.Interface()); err != nil {
			return fmt.Errorf("failed to write scalar field: %w", err)
		}

	default:
		return fmt.Errorf("unsupported uniform type: %s", field.Type())
	}
	return nil
}

func padTo16(data []byte) []byte {
	if rem := len(data) % 16; rem != 0 || len(data) == 0 {
		data = append(data, make([]byte, 16-rem)...)
	}
	return data
}

// standardMaterialUniform mirrors StandardMaterial in the material shader.
type standardMaterialUniform struct {
	BaseColor  [4]float32
	Roughness  float32
	Metallic   float32
	HasTexture uint32
	_          uint32
}

func (m StandardMaterial) uniformBytes() []byte {
	u := standardMaterialUniform{
		BaseColor: m.BaseColor,
		Roughness: m.Roughness,
		Metallic:  m.Metallic,
	}
	if m.BaseColorTexture.IsValid() {
		u.HasTexture = 1
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, u); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// viewUniform is bind group 0, binding 0.
type viewUniform struct {
	ViewProj      mgl32.Mat4
	LightViewProj mgl32.Mat4
	CameraPos     [4]float32
	LightDir      [4]float32
	LightColor    [4]float32 // rgb, w = illuminance scale
	Params        [4]float32 // x: shadows enabled
}

// meshUniform is bind group 1, binding 0.
type meshUniform struct {
	Model  mgl32.Mat4
	Normal mgl32.Mat4
}

func toUniformBytes(v any) []byte {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
