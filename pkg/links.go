package pkg

import "github.com/appetiteclub/apt"

// Resource is addressable under /<plural>/<id>. Ledger ids are plain strings
// (table codes, uuids), so apt.RESTfulLinksFor, which wants a uuid, can't
// build them.
type Resource interface {
	GetID() string
	ResourceType() string
}

// LinksFor returns the self and collection links for r.
func LinksFor(r Resource) []apt.Link {
	collection := "/" + apt.Pluralize(r.ResourceType())
	return apt.NewLinkBuilder().
		Custom(apt.RelSelf, collection+"/"+r.GetID()).
		Custom(apt.RelCollection, collection).
		Build()
}
