package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Offset_AdvanceByte(t *testing.T) {
	testCases := []struct {
		name         string
		bytes        []byte
		expectLine   int
		expectColumn int
		expectByte   int64
	}{
		{name: "plain ascii", bytes: []byte("abc"), expectLine: 1, expectColumn: 4, expectByte: 3},
		{name: "single LF", bytes: []byte("a\nb"), expectLine: 2, expectColumn: 2, expectByte: 3},
		{name: "CRLF counts once", bytes: []byte("a\r\nb"), expectLine: 2, expectColumn: 2, expectByte: 4},
		{name: "LFCR counts once", bytes: []byte("a\n\rb"), expectLine: 2, expectColumn: 2, expectByte: 4},
		{name: "blank line", bytes: []byte("a\n\nb"), expectLine: 3, expectColumn: 2, expectByte: 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			o := Start()
			var prevNewlineByte byte
			for _, b := range tc.bytes {
				o, prevNewlineByte = o.AdvanceByte(b, prevNewlineByte)
			}

			assert.Equal(tc.expectByte, o.Byte)
			assert.Equal(tc.expectLine, o.Line)
			assert.Equal(tc.expectColumn, o.Column)
		})
	}
}

func Test_Offset_Start(t *testing.T) {
	assert := assert.New(t)
	o := Start()
	assert.Equal(int64(0), o.Byte)
	assert.Equal(1, o.Line)
	assert.Equal(1, o.Column)
}
