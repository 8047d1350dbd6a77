package mvel_test

import (
	"testing"

	"github.com/Gobd/mvel"
	"github.com/stretchr/testify/assert"
)

type Base struct {
	Inner  string
	Tagged string `mvel:"string"`
}

type Covered struct {
	Base
	ID       string `mvel:"required"`
	Name     string
	Skipped  string `json:"-"`
	Optional string `mvel:"-"`
	Extra    string
	internal string
}

type Declared struct {
	Name  string
	Count int
}

func init() {
	mvel.Declare(func(d *mvel.Declaration[Declared]) {
		d.Property("Name", mvel.NewConstraint("required"))
	})
}

func TestMissingConstraints(t *testing.T) {
	assert.Equal(t, []string{"Inner", "Name", "Extra"}, mvel.MissingConstraints(&Covered{internal: "x"}))
	assert.Equal(t, []string{"Inner", "Name"}, mvel.MissingConstraints(Covered{}, "Extra"))
	assert.Equal(t, []string{"Count"}, mvel.MissingConstraints(&Declared{}))
	assert.Empty(t, mvel.MissingConstraints(&Declared{}, "Count"))
	assert.Nil(t, mvel.MissingConstraints(42))
}
