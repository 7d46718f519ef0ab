// Package validator implements the check level policy engine.
//
// A check level is a four digit code, one digit per axis:
//
//	digit 1  errors    0 skip, 1 warn only, 2 fatal
//	digit 2  types     0 off, 1 warn and coerce, 2 fatal
//	digit 3  fields    0 off, 1 fill missing and allow extra,
//	                   2 strict, 3 fill missing and reject extra
//	digit 4  recovery  0 none, 1 patch in place, 2 replace with default
//
// [Validate] applies digits 2 and 3 against a reference mapping and returns
// the corrected mapping with its [Finding]s. Digit 1 decides whether error
// findings make the [Result] fatal. Digit 4 is carried here but acted on by
// the recovery package.
//
// # Basic Usage
//
//	level, err := validator.ParseCheckLevel("2121")
//	if err != nil {
//		return err
//	}
//	res := validator.Validate(current, reference, level)
//	validator.LogFindings(logger, res.Findings)
//	if err := res.Err(); err != nil {
//		return err // matches errors.ErrValidation
//	}
//
// Use [Reporter] to print findings for humans or as JSON.
package validator
