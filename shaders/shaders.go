package shaders

import (
	_ "embed"
)

//go:embed standard.wgsl
var StandardWGSL string

//go:embed prepass.wgsl
var PrepassWGSL string

//go:embed text.wgsl
var TextWGSL string
