/*
Package schema defines the field specifications a model is built from, resolves
their default values and validates attribute sets against them.

A schema maps field names to field specifications:

	schema.Schema{
		"email":  {Type: schema.TypeString, Format: "email", Required: true},
		"status": {Type: schema.TypeString, Default: schema.Value("pending")},
		"token":  {Type: schema.TypeString, Default: schema.Generator(newToken)},
		"address": {Properties: schema.Schema{
			"city":    {Type: schema.TypeString},
			"country": {Type: schema.TypeString, Default: schema.Value("NL")},
		}},
	}

The same schema in YAML:

	email:   { type: string, format: email, required: true }
	status:  { type: string, default: pending }
	token:   { type: string, generate: random }
	address:
	  properties:
	    city:    { type: string }
	    country: { type: string, default: NL }

# Field Types

  - any:     any value, including none
  - string:  text value
  - number:  any numeric value
  - integer: numeric value without a fractional part
  - boolean: true or false
  - object:  nested map; implied when properties are declared
  - array:   list of values

# Formats

Formats refine string fields: email, url, uuid, date-time, date, ipv4, ipv6.
Additional formats can be registered on a Validator.
*/
package schema
