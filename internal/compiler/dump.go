// © 2024 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"google.golang.org/protobuf/types/known/structpb"

	"gopkg.microglot.org/paramgen/internal/expand"
)

// dumpPlan describes every expansion as a protobuf Struct:
//
//	{"files": [{"source": ..., "output": ..., "containers": [{"name": ...,
//	  "function": ..., "mode": ..., "line": ..., "cases": [...]}]}]}
func dumpPlan(plans []*filePlan) (*structpb.Struct, error) {
	files := make([]interface{}, 0, len(plans))
	for _, plan := range plans {
		containers := make([]interface{}, 0, len(plan.containers))
		for _, c := range plan.containers {
			containers = append(containers, dumpContainer(c))
		}
		files = append(files, map[string]interface{}{
			"source":     plan.path,
			"output":     plan.output,
			"containers": containers,
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		"files": files,
	})
}

func dumpContainer(c *expand.Container) map[string]interface{} {
	cases := make([]interface{}, 0, len(c.Cases))
	for _, gc := range c.Cases {
		bindings := make([]interface{}, 0, len(gc.Bindings))
		for _, b := range gc.Bindings {
			bindings = append(bindings, map[string]interface{}{
				"name":  b.Name,
				"type":  b.Type,
				"value": b.Value.Text,
				"used":  b.Used,
			})
		}
		attributes := make([]interface{}, 0, len(gc.Attributes))
		for _, a := range gc.Attributes {
			attributes = append(attributes, a)
		}
		cases = append(cases, map[string]interface{}{
			"name":       gc.Name,
			"ident":      gc.Ident,
			"handle":     gc.Handle,
			"parallel":   gc.Parallel,
			"attributes": attributes,
			"bindings":   bindings,
		})
	}
	return map[string]interface{}{
		"name":     c.Name,
		"function": c.Function,
		"mode":     c.Mode,
		"line":     c.Location.Line,
		"cases":    cases,
	}
}
