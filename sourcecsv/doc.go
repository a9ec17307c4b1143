// Package sourcecsv turns a CSV table into a keyed configuration tree.
//
//	id,name,age
//	1,Alice,30
//
// with KeyFields ["id", "name"] and Root "users" loads as
// {"users": {"1,Alice": {"id": "1", "name": "Alice", "age": "30"}}},
// ready to bind into a map[string]User field.
package sourcecsv
