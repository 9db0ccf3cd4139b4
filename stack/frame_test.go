package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Stack_PushPopOrder(t *testing.T) {
	assert := assert.New(t)

	var s Stack
	assert.True(s.Empty())

	s.Push(NewRTNFrame(0, Start()))
	s.Push(NewGLAFrame(1, Start()))
	s.Push(NewIntFAFrame(2, Start()))
	assert.Equal(3, s.Len())
	assert.Equal(IntFA, s.Top().Kind)

	popped := s.Pop()
	assert.Equal(IntFA, popped.Kind)
	assert.Equal(2, s.Len())
	assert.Equal(GLA, s.Top().Kind)

	s.Pop()
	assert.Equal(RTN, s.Top().Kind)
	assert.Equal(0, s.Top().RTNIndex)
}

func Test_Stack_At_IndexesFromBottom(t *testing.T) {
	assert := assert.New(t)

	var s Stack
	s.Push(NewRTNFrame(0, Start()))
	s.Push(NewRTNFrame(1, Start()))
	s.Push(NewRTNFrame(2, Start()))

	assert.Equal(0, s.At(0).RTNIndex)
	assert.Equal(1, s.At(1).RTNIndex)
	assert.Equal(2, s.At(2).RTNIndex)
}

func Test_Stack_Clone_IsIndependent(t *testing.T) {
	assert := assert.New(t)

	var s Stack
	s.Push(NewRTNFrame(0, Start()))
	s.Push(NewRTNFrame(1, Start()))

	clone := s.Clone()
	clone.Top().RTNState = 7
	clone.Push(NewRTNFrame(2, Start()))

	assert.Equal(2, s.Len())
	assert.Equal(0, s.Top().RTNState)
	assert.Equal(3, clone.Len())
}

func Test_Kind_String(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("RTN", RTN.String())
	assert.Equal("GLA", GLA.String())
	assert.Equal("IntFA", IntFA.String())
}
