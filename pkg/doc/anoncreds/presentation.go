/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
)

// Select picks every referent of request that cred can satisfy. Attributes are revealed. A referent whose
// attribute the credential lacks, or a predicate the raw value does not meet, fails with ErrMissingClaim.
func Select(request *PresentationRequest, cred *CredentialStack) (*RequestedCredentials, error) {
	selected := &RequestedCredentials{Attributes: map[string]bool{}}

	var missing []string

	for referent, attr := range request.RequestedAttributes {
		if !cred.satisfiesRestrictions(attr.Restrictions) {
			missing = append(missing, attr.Name)

			continue
		}

		if _, ok := cred.Credential.Values[attr.Name]; !ok {
			missing = append(missing, attr.Name)

			continue
		}

		selected.Attributes[referent] = true
	}

	for referent, pred := range request.RequestedPredicates {
		v, ok := cred.Credential.Values[pred.Name]
		if !ok || !cred.satisfiesRestrictions(pred.Restrictions) || !pred.holds(v.Raw) {
			missing = append(missing, pred.Name)

			continue
		}

		selected.Predicates = append(selected.Predicates, referent)
	}

	if len(missing) != 0 {
		sort.Strings(missing)

		return nil, fmt.Errorf("%w: %s", verifiable.ErrMissingClaim, strings.Join(missing, ", "))
	}

	sort.Strings(selected.Predicates)

	return selected, nil
}

func (p RequestedPredicate) holds(raw string) bool {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}

	switch p.PType {
	case GreaterOrEqual:
		return v >= p.PValue
	case GreaterThan:
		return v > p.PValue
	case LessOrEqual:
		return v <= p.PValue
	case LessThan:
		return v < p.PValue
	default:
		return false
	}
}

func (c *CredentialStack) satisfiesRestrictions(restrictions []Restriction) bool {
	if len(restrictions) == 0 {
		return true
	}

	for _, r := range restrictions {
		if (r.SchemaID == "" || r.SchemaID == c.Credential.SchemaID) &&
			(r.CredDefID == "" || r.CredDefID == c.Credential.CredDefID) &&
			(r.IssuerDID == "" || r.IssuerDID == c.Issuer()) {
			return true
		}
	}

	return false
}
