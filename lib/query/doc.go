// Package query keeps small collections of records in a typed store and filters
// them in memory.
//
// A collection is one store entry holding every record of a type, keyed by the
// type name. Records embed Model for their uid:
//
//	type User struct {
//		query.Model
//		Name string
//		Age  int
//	}
//
//	users, err := query.Open[User](path, nil)
//	_, err = users.Add(User{Model: query.NewModel(), Name: "jack", Age: 18})
//	qs, err := users.Query()
//	jack, ok := qs.Where("name", "jack").First()
//
// There are no indices: every query loads the whole collection and every
// mutation rewrites it.
package query
