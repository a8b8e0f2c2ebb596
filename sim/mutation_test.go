package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDFE_Validate(t *testing.T) {
	tests := []struct {
		name    string
		dfe     DFE
		wantErr bool
	}{
		{"fixed", DFE{Kind: DFEFixed, Params: []float64{-0.1}}, false},
		{"exponential", DFE{Kind: DFEExponential, Params: []float64{0.02}}, false},
		{"normal", DFE{Kind: DFENormal, Params: []float64{0, 0.1}}, false},
		{"unknown kind", DFE{Kind: "gamma", Params: []float64{1, 2}}, true},
		{"fixed needs one", DFE{Kind: DFEFixed}, true},
		{"normal needs two", DFE{Kind: DFENormal, Params: []float64{0}}, true},
		{"NaN", DFE{Kind: DFEFixed, Params: []float64{math.NaN()}}, true},
		{"negative stddev", DFE{Kind: DFENormal, Params: []float64{0, -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dfe.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDFE_Draw(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	assert.Equal(t, -0.1, DFE{Kind: DFEFixed, Params: []float64{-0.1}}.Draw(rng))

	exp := DFE{Kind: DFEExponential, Params: []float64{-0.05}}
	for i := 0; i < 100; i++ {
		assert.LessOrEqual(t, exp.Draw(rng), 0.0, "sign follows the mean")
	}
	assert.Equal(t, 0.3, DFE{Kind: DFENormal, Params: []float64{0.3, 0}}.Draw(rng))
}

func TestMutationRegistry(t *testing.T) {
	reg := NewMutationRegistry()
	neutral, err := reg.DefineType(2, 0.5, DFE{Kind: DFENormal, Params: []float64{0, 0}})
	require.NoError(t, err)
	_, err = reg.DefineType(1, 0.5, DFE{Kind: DFEFixed, Params: []float64{0}})
	require.NoError(t, err)

	_, err = reg.DefineType(1, 0.5, DFE{Kind: DFEFixed, Params: []float64{0}})
	assert.True(t, errors.Is(err, ErrConfiguration), "duplicate id")
	_, err = reg.DefineType(3, math.Inf(1), DFE{Kind: DFEFixed, Params: []float64{0}})
	assert.True(t, errors.Is(err, ErrConfiguration), "infinite dominance")
	_, err = reg.DefineType(4, 0.5, DFE{Kind: "beta"})
	assert.True(t, errors.Is(err, ErrConfiguration), "bad DFE")

	assert.Equal(t, 2, reg.TypeCount())
	assert.Equal(t, 1, reg.Types()[0].ID)
	assert.Nil(t, reg.Type(3))
	assert.True(t, reg.PureNeutral())

	a := reg.NewMutation(neutral, 10, 0, 4)
	b := reg.DrawMutation(rand.New(rand.NewSource(1)), neutral, 11, 4)
	assert.Less(t, a.ID(), b.ID())
	assert.Equal(t, int64(4), b.OriginGeneration())
	assert.Equal(t, 0.5, b.DominanceCoeff())
	assert.True(t, reg.PureNeutral())

	reg.NewMutation(neutral, 12, 0.01, 4)
	assert.False(t, reg.PureNeutral())
	assert.Panics(t, func() { reg.NewMutation(nil, 1, 0, 1) })
}
