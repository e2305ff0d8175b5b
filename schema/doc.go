// Package schema describes the record types a feature store can hold.
//
// A record type is a Go struct registered once with a [Registry]. Every
// exported field becomes a stored field unless tagged `feature:"-"`. The
// tag also renames a field and marks it optional:
//
//	type Order struct {
//	    Date         time.Time `feature:"date"`
//	    Email        string    `feature:"email" validate:"email"`
//	    DiscountCode *string   `feature:"discount_code"`
//	    DiscountRate float64   `feature:"discount_rate,optional"`
//	}
//
// Optional fields take their default from the prototype passed with
// [WithDefaults] (the zero value otherwise). Pointer fields are nullable and
// default to nil. All other fields are required.
//
// The `validate` tag holds go-playground/validator rules that run whenever a
// record or a single field is written or read back.
package schema
