package identity

// AccessorMethods builds the accessor method elements of a property, indexer or
// event. member carries the scope, the name and (for indexers) the index
// parameters; value is the property type or the event handler type.
func AccessorMethods(member Element, value TypeRef, roles ...AccessorRole) []Element {
	out := make([]Element, 0, len(roles))
	for _, role := range roles {
		m := Element{
			Kind:     KindMethod,
			Scope:    member.Scope,
			Name:     role.Prefix() + member.Name,
			Accessor: &Accessor{Role: role, Of: member.Name},
		}
		switch role {
		case AccessorGetter:
			m.Parameters = cloneRefs(member.Parameters, 0)
		case AccessorSetter:
			m.Parameters = append(cloneRefs(member.Parameters, 1), value)
		case AccessorAdder, AccessorRemover:
			m.Parameters = []TypeRef{value}
		default:
			continue
		}
		out = append(out, m)
	}
	return out
}

func cloneRefs(refs []TypeRef, extra int) []TypeRef {
	if len(refs)+extra == 0 {
		return nil
	}
	out := make([]TypeRef, len(refs), len(refs)+extra)
	copy(out, refs)
	return out
}
