// Package mvel is a declarative validation engine. Validations are written in
// mVEL, a compact expression language combining named rules with logical
// combinators, or built as an [AST], and executed against arbitrary values.
//
// An expression is a sequence of rule statements joined by ~ (not), & (and),
// | (or) and ^ (xor), grouped with parentheses and evaluated strictly left to
// right. A leading ? makes it optimistic (stop at the first passing rule), a
// leading ! pessimistic (stop at the first failing rule):
//
//	required&integer&min:18
//	?null|(string&length:1,255)
//	in:"a","b","c"
//
// Rules are not defined here; they are registered into a [Registry] by the
// caller (see the rules sub-package for a standard set):
//
//	reg := rules.NewRegistry()
//	res, err := mvel.NewEngine(reg).Execute(17, "required&integer&min:18")
//	// res.Success == false, res.Failures[0].Rule == "min"
//
// Keyed data is validated with a [Validator], and constraints declared on
// struct types (mvel struct tags or [Declare]) are discovered and run with
// [Check], [ValidateConstraints] and [IsValid].
//
// Sub-packages:
//   - rules – a standard rule set built on ozzo-validation and govalidator
//   - openapi – OpenAPI schema generation annotated with declared constraints
package mvel
