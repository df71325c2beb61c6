package gekko

import (
	"reflect"
)

// A column is one component's storage in an archetype: a []T held as any,
// so queries can type-assert it back while the ECS moves rows by reflection.

func newColumn(elem reflect.Type) any {
	return reflect.MakeSlice(reflect.SliceOf(elem), 0, 1).Interface()
}

func columnGet(col any, r row) reflect.Value {
	return reflect.ValueOf(col).Index(int(r))
}

func columnSet(col any, r row, val reflect.Value) {
	reflect.ValueOf(col).Index(int(r)).Set(val)
}

// columnClear zeroes a row so values referenced from it can be collected.
func columnClear(col any, r row) {
	cell := reflect.ValueOf(col).Index(int(r))
	cell.SetZero()
}

// columnGrow appends one zero row and returns the possibly reallocated column.
func columnGrow(col any) any {
	v := reflect.ValueOf(col)
	return reflect.Append(v, reflect.Zero(v.Type().Elem())).Interface()
}

func columnLen(col any) int {
	return reflect.ValueOf(col).Len()
}
