package parserpool_test

import (
	"sync"
	"testing"

	"github.com/gnames/gnbold/pkg/parserpool"
	"github.com/gnames/gnlib/ent/nomcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	pool := parserpool.New(2)
	defer pool.Close()

	tests := []struct {
		name      string
		input     string
		canonical string
		ok        bool
	}{
		{"binomial", "Chironomus riparius", "Chironomus riparius", true},
		{"with author", "Chironomus riparius Meigen, 1804",
			"Chironomus riparius", true},
		{"uninomial", "Chironomidae", "Chironomidae", true},
		{"surrogate", "Chironomus sp. BOLD:AAA1234", "", false},
	}

	for _, v := range tests {
		t.Run(v.name, func(t *testing.T) {
			res, ok := parserpool.Canonical(pool, v.input, nomcode.Zoological)
			assert.Equal(t, v.ok, ok)
			assert.Equal(t, v.canonical, res)
		})
	}
}

func TestIsHybrid(t *testing.T) {
	pool := parserpool.New(1)
	defer pool.Close()

	assert.True(t, parserpool.IsHybrid(pool,
		"Salix alba × Salix fragilis", nomcode.Botanical))
	assert.False(t, parserpool.IsHybrid(pool,
		"Salix alba", nomcode.Botanical))
}

func TestCodeFor(t *testing.T) {
	assert.Equal(t, nomcode.Botanical, parserpool.CodeFor("Plantae"))
	assert.Equal(t, nomcode.Botanical, parserpool.CodeFor(" fungi "))
	assert.Equal(t, nomcode.Zoological, parserpool.CodeFor("Animalia"))
	assert.Equal(t, nomcode.Zoological, parserpool.CodeFor(""))
}

func TestConcurrentParse(t *testing.T) {
	pool := parserpool.New(4)
	defer pool.Close()

	names := []string{
		"Aedes aegypti", "Apis mellifera", "Quercus robur L.",
		"Drosophila melanogaster Meigen, 1830",
	}

	var wg sync.WaitGroup
	for range 20 {
		for _, n := range names {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok := parserpool.Canonical(pool, n, nomcode.Zoological)
				assert.True(t, ok)
			}()
		}
	}
	wg.Wait()
	require.NotNil(t, pool)
}
