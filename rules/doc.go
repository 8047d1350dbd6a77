// Package rules provides a standard set of [mvel.Rule] definitions built on
// ozzo-validation and govalidator. The engine itself defines no rules; install
// these with [Register] or start from [NewRegistry]:
//
//	reg := rules.NewRegistry()
//	res, err := mvel.NewEngine(reg).Execute("b", `in:"a","b","c"`)
package rules
