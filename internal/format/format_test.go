// README: CPF and phone formatting tests.
package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCPF(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"529.982.247-25", true},
		{"52998224725", true},
		{"111.444.777-35", true},
		{"529.982.247-26", false},
		{"111.111.111-11", false},
		{"00000000000", false},
		{"529.982.247", false},
		{"", false},
		{"5299822472500", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidCPF(tt.in), "ValidCPF(%q)", tt.in)
	}
}

func TestMaskCPF_Progressive(t *testing.T) {
	assert.Equal(t, "", MaskCPF(""))
	assert.Equal(t, "529", MaskCPF("529"))
	assert.Equal(t, "529.9", MaskCPF("5299"))
	assert.Equal(t, "529.982.2", MaskCPF("5299822"))
	assert.Equal(t, "529.982.247-2", MaskCPF("5299822472"))
	assert.Equal(t, "529.982.247-25", MaskCPF("52998224725"))
	assert.Equal(t, "529.982.247-25", MaskCPF("52998224725999"))
	assert.Equal(t, "529.982.247-25", MaskCPF("529.982.247-25"))
}

func TestMaskHiddenCPF(t *testing.T) {
	assert.Equal(t, "529.***.***-25", MaskHiddenCPF("529.982.247-25"))
	assert.Equal(t, "12345", MaskHiddenCPF("12345"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "9", MaskPhone("9"))
	assert.Equal(t, "93", MaskPhone("93"))
	assert.Equal(t, "(93) 9", MaskPhone("939"))
	assert.Equal(t, "(93) 98118", MaskPhone("9398118"))
	assert.Equal(t, "(93) 98118-3", MaskPhone("93981183"))
	assert.Equal(t, "(93) 98118-3360", MaskPhone("93981183360"))
	assert.Equal(t, "(93) 98118-3360", MaskPhone("9398118336012"))
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("(93) 98118-3360"))
	assert.True(t, ValidPhone("93981183360"))
	assert.True(t, ValidPhone("(93) 8118-3360"))
	assert.False(t, ValidPhone("(93) 98118-336"))
	assert.False(t, ValidPhone("(93) 98118-3360 ramal"))
	assert.False(t, ValidPhone(""))
}
