package openapi

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+`)

// Lint runs structural checks over the document and, for 3.x documents,
// a full schema validation pass. Findings come back as warnings; generation
// proceeds regardless so a sloppy but usable document still compiles.
func (d *Document) Lint(ctx context.Context) []string {
	var warnings []string

	version := d.Version()
	if !versionPattern.MatchString(version) {
		warnings = append(warnings, fmt.Sprintf("unrecognized spec version %q", version))
	}

	info, ok := getMap(d.root, "info")
	if !ok {
		warnings = append(warnings, "missing info section")
	} else {
		if t, _ := getString(info, "title"); t == "" {
			warnings = append(warnings, "info.title is missing or empty")
		}
		if v, _ := getString(info, "version"); v == "" {
			warnings = append(warnings, "info.version is missing or empty")
		}
	}

	paths, ok := getMap(d.root, "paths")
	if !ok || paths.Len() == 0 {
		warnings = append(warnings, "document declares no paths")
	} else {
		for pair := paths.Oldest(); pair != nil; pair = pair.Next() {
			if !strings.HasPrefix(pair.Key, "/") {
				warnings = append(warnings, fmt.Sprintf("path %q does not start with /", pair.Key))
			}
		}
	}

	warnings = append(warnings, d.lintServers()...)

	if !d.IsSwagger2() {
		warnings = append(warnings, d.lintKin(ctx)...)
	}

	return warnings
}

func (d *Document) lintServers() []string {
	servers, ok := get(d.root, "servers")
	if !ok {
		return nil
	}
	arr, isArr := servers.([]any)
	if !isArr {
		return []string{"servers is not an array"}
	}
	var warnings []string
	for i, entry := range arr {
		server, isMap := entry.(*orderedmap.OrderedMap[string, any])
		if !isMap {
			warnings = append(warnings, fmt.Sprintf("servers[%d] is not an object", i))
			continue
		}
		u, _ := getString(server, "url")
		if u == "" {
			warnings = append(warnings, fmt.Sprintf("servers[%d] has no url", i))
			continue
		}
		// Variable templates like {region} are legal; check the rest.
		if strings.Contains(u, "{") {
			continue
		}
		if _, err := url.Parse(u); err != nil {
			warnings = append(warnings, fmt.Sprintf("servers[%d] url %q: %v", i, u, err))
		}
	}
	return warnings
}

// lintKin validates a 3.x document against the OpenAPI schema proper.
func (d *Document) lintKin(ctx context.Context) []string {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(d.raw)
	if err != nil {
		return []string{fmt.Sprintf("document does not load as OpenAPI 3.x: %v", err)}
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return []string{fmt.Sprintf("schema validation: %v", err)}
	}
	return nil
}
