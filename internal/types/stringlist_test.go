package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringListUnmarshal(t *testing.T) {
	t.Run("Array", func(t *testing.T) {
		var l StringList
		err := json.Unmarshal([]byte(`["a","b"]`), &l)
		assert.NoError(t, err)
		assert.Equal(t, StringList{"a", "b"}, l)
	})

	t.Run("SingularString", func(t *testing.T) {
		// Legacy clients send a bare string where an array belongs.
		var l StringList
		err := json.Unmarshal([]byte(`"only"`), &l)
		assert.NoError(t, err)
		assert.Equal(t, StringList{"only"}, l)
	})

	t.Run("Null", func(t *testing.T) {
		var l StringList
		err := json.Unmarshal([]byte(`null`), &l)
		assert.NoError(t, err)
		assert.Nil(t, l)
	})

	t.Run("Number", func(t *testing.T) {
		var l StringList
		err := json.Unmarshal([]byte(`42`), &l)
		assert.Error(t, err)
	})

	t.Run("InsideStruct", func(t *testing.T) {
		var params CreateListingParams
		err := json.Unmarshal([]byte(`{"name":"x","specialties":"ICU","images":["a.jpg"]}`), &params)
		assert.NoError(t, err)
		assert.Equal(t, StringList{"ICU"}, params.Specialties)
		assert.Equal(t, StringList{"a.jpg"}, params.Images)
	})
}
