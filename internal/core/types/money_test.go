package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorZero(t *testing.T) {
	assert.True(t, FloorZero(MustMoney("-10.5")).IsZero())
	assert.True(t, FloorZero(MustMoney("10.5")).Equal(MustMoney("10.5")))
}

func TestSum(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.True(t, Sum(MustMoney("1.10"), MustMoney("2.20"), MustMoney("-0.30")).Equal(MustMoney("3")))
}

func TestOptionalPositive(t *testing.T) {
	zero := Zero()
	pos := MustMoney("0.01")

	assert.False(t, OptionalPositive(nil))
	assert.False(t, OptionalPositive(&zero))
	assert.True(t, OptionalPositive(&pos))
	assert.True(t, Deref(nil).IsZero())
	assert.True(t, Deref(&pos).Equal(pos))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "500.00", FormatAmount(NewMoneyFromInt(500)))
	assert.Equal(t, "12.35", FormatAmount(MustMoney("12.345")))
}
