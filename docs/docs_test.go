package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEndpointsAreDocumented(t *testing.T) {
	var doc struct {
		Paths map[string]map[string]struct {
			Tags       []string `json:"tags"`
			Parameters []struct {
				Name   string `json:"name"`
				In     string `json:"in"`
				Schema struct {
					Ref string `json:"$ref"`
				} `json:"schema"`
			} `json:"parameters"`
		} `json:"paths"`
		Definitions map[string]json.RawMessage `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc))

	for _, route := range []string{"requirements", "estimates", "tech-stacks", "user-flows", "wireframes"} {
		t.Run(route, func(t *testing.T) {
			op, ok := doc.Paths["/projects/{projectID}/"+route]["post"]
			require.True(t, ok, "missing POST /projects/{projectID}/%s", route)
			var names []string
			for _, p := range op.Parameters {
				names = append(names, p.In+":"+p.Name)
				if p.In == "body" {
					ref := p.Schema.Ref
					require.NotEmpty(t, ref)
					assert.Contains(t, doc.Definitions, ref[len("#/definitions/"):])
				}
			}
			assert.Contains(t, names, "path:projectID")
			assert.Contains(t, names, "query:async")
		})
	}
}
