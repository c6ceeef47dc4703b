package enum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("create a enum of string", func(t *testing.T) {
		type EnumString string

		bar := New(EnumString("bar"), "Bar")
		require.Equal(t, bar, EnumString("bar"))

		v, err := ToEnum[EnumString]("Bar")
		require.NoError(t, err)
		require.Equal(t, v, bar)

		_, err = ToEnum[EnumString]("bar")
		require.Error(t, err)

		require.Equal(t, ToString(bar), "Bar")
		require.Equal(t, ToString(EnumString("foo")), "")
	})

	t.Run("create a enum of int", func(t *testing.T) {
		type EnumInt int

		bar := New(EnumInt(100), "Bar")
		require.Equal(t, bar, EnumInt(100))

		v, err := ToEnum[EnumInt]("Bar")
		require.NoError(t, err)
		require.Equal(t, v, bar)

		_, err = ToEnum[EnumInt]("bar")
		require.Error(t, err)

		require.Equal(t, ToString(bar), "Bar")
		require.Equal(t, ToString(EnumInt(200)), "")
	})
}

func TestValues(t *testing.T) {
	type Color string

	red := New(Color("r"), "red")
	green := New(Color("g"), "green")
	New(Color("r"), "crimson")

	require.Equal(t, []Color{red, green}, Values[Color]())
	require.Equal(t, "crimson", ToString(red))

	type Unknown string
	require.Nil(t, Values[Unknown]())
}
