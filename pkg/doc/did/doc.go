/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

// ContextV1 of the DID document.
const ContextV1 = "https://www.w3.org/ns/did/v1"

// Verification method types.
const (
	JSONWebKey2020                  = "JsonWebKey2020"
	Ed25519VerificationKey2018      = "Ed25519VerificationKey2018"
	Ed25519VerificationKey2020      = "Ed25519VerificationKey2020"
	X25519KeyAgreementKey2019       = "X25519KeyAgreementKey2019"
	X25519KeyAgreementKey2020       = "X25519KeyAgreementKey2020"
	EcdsaSecp256k1VerificationKey19 = "EcdsaSecp256k1VerificationKey2019"
)

const (
	jsonldContext              = "@context"
	jsonldID                   = "id"
	jsonldVerificationMethod   = "verificationMethod"
	jsonldAuthentication       = "authentication"
	jsonldAssertionMethod      = "assertionMethod"
	jsonldKeyAgreement         = "keyAgreement"
	jsonldCapabilityInvocation = "capabilityInvocation"
	jsonldCapabilityDelegation = "capabilityDelegation"
	jsonldService              = "service"
	jsonldController           = "controller"
	jsonldAlsoKnownAs          = "alsoKnownAs"
)

var logger = log.New("edge-agent/did") //nolint:gochecknoglobals

var schemaLoader = gojsonschema.NewStringLoader(schemaDoc) //nolint:gochecknoglobals

// CoreProperty is one of the DID document property variants listed in this file.
type CoreProperty interface {
	coreProperty()
}

// VerificationMethods property.
type VerificationMethods []VerificationMethod

// Services property.
type Services []Service

// Relationship lists verification methods by reference or embedded.
type Relationship struct {
	References []string
	Embedded   []VerificationMethod
}

// Authentication property.
type Authentication struct{ Relationship }

// AssertionMethod property.
type AssertionMethod struct{ Relationship }

// KeyAgreement property.
type KeyAgreement struct{ Relationship }

// CapabilityInvocation property.
type CapabilityInvocation struct{ Relationship }

// CapabilityDelegation property.
type CapabilityDelegation struct{ Relationship }

// Controller property.
type Controller []DID

// AlsoKnownAs property.
type AlsoKnownAs []string

// UnknownProperty keeps document members this package does not model.
type UnknownProperty struct {
	Name  string
	Value json.RawMessage
}

func (VerificationMethods) coreProperty()  {}
func (Services) coreProperty()             {}
func (Authentication) coreProperty()       {}
func (AssertionMethod) coreProperty()      {}
func (KeyAgreement) coreProperty()         {}
func (CapabilityInvocation) coreProperty() {}
func (CapabilityDelegation) coreProperty() {}
func (Controller) coreProperty()           {}
func (AlsoKnownAs) coreProperty()          {}
func (UnknownProperty) coreProperty()      {}

// VerificationMethod DID doc verification method.
type VerificationMethod struct {
	ID                 URL
	Controller         DID
	Type               string
	PublicKeyJwk       *jwk.JWK
	PublicKeyMultibase string
	PublicKeyBase58    string
}

// PublicKey decodes whichever key encoding the method carries.
func (vm *VerificationMethod) PublicKey() (keys.PublicKey, error) {
	var (
		pub keys.PublicKey
		err error
	)

	switch {
	case vm.PublicKeyJwk != nil:
		pub, err = publicFromJWK(vm.PublicKeyJwk)
	case vm.PublicKeyMultibase != "":
		pub, err = DecodeMultibaseKey(vm.PublicKeyMultibase)
	case vm.PublicKeyBase58 != "":
		var curve keys.Curve

		curve, err = curveOfMethodType(vm.Type)
		if err == nil {
			pub, err = decodeBase58Key(curve, vm.PublicKeyBase58)
		}
	default:
		err = fmt.Errorf("%w: %s has no key material", ErrInvalidPublicKeyEncoding, vm.ID.String())
	}

	if err != nil {
		return nil, err
	}

	pub.Ref().SetID(vm.ID.String())

	return pub, nil
}

func publicFromJWK(key *jwk.JWK) (keys.PublicKey, error) {
	restored, err := kms.New().RestoreKey(key.Public(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: jwk: %v", ErrInvalidPublicKeyEncoding, err)
	}

	pub, ok := restored.(keys.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: jwk is not a public key", ErrInvalidPublicKeyEncoding)
	}

	return pub, nil
}

func curveOfMethodType(t string) (keys.Curve, error) {
	switch t {
	case Ed25519VerificationKey2018, Ed25519VerificationKey2020:
		return keys.Ed25519, nil
	case X25519KeyAgreementKey2019, X25519KeyAgreementKey2020:
		return keys.X25519, nil
	case EcdsaSecp256k1VerificationKey19:
		return keys.Secp256k1, nil
	default:
		return "", fmt.Errorf("%w: unknown verification method type %q", ErrInvalidPublicKeyEncoding, t)
	}
}

// ServiceEndpoint of a DIDComm service.
type ServiceEndpoint struct {
	URI         string   `json:"uri"`
	Accept      []string `json:"accept,omitempty"`
	RoutingKeys []string `json:"routingKeys,omitempty"`
}

// Service DID doc service.
type Service struct {
	ID       string
	Type     []string
	Endpoint ServiceEndpoint
}

// HasType reports whether t is one of the service types.
func (s *Service) HasType(t string) bool {
	for _, st := range s.Type {
		if st == t {
			return true
		}
	}

	return false
}

// Doc DID Document definition.
type Doc struct {
	Context        []string
	ID             DID
	CoreProperties []CoreProperty
}

// DocOption provides options to build DID Doc.
type DocOption func(opts *Doc)

// WithVerificationMethod adds verification methods.
func WithVerificationMethod(vms ...VerificationMethod) DocOption {
	return func(opts *Doc) {
		opts.CoreProperties = append(opts.CoreProperties, VerificationMethods(vms))
	}
}

// WithService adds services.
func WithService(svcs ...Service) DocOption {
	return func(opts *Doc) {
		opts.CoreProperties = append(opts.CoreProperties, Services(svcs))
	}
}

// WithAuthentication references verification methods usable for authentication.
func WithAuthentication(refs ...string) DocOption {
	return func(opts *Doc) {
		opts.CoreProperties = append(opts.CoreProperties, Authentication{Relationship{References: refs}})
	}
}

// WithKeyAgreement references verification methods usable for key agreement.
func WithKeyAgreement(refs ...string) DocOption {
	return func(opts *Doc) {
		opts.CoreProperties = append(opts.CoreProperties, KeyAgreement{Relationship{References: refs}})
	}
}

// WithAssertionMethod references verification methods usable for assertions.
func WithAssertionMethod(refs ...string) DocOption {
	return func(opts *Doc) {
		opts.CoreProperties = append(opts.CoreProperties, AssertionMethod{Relationship{References: refs}})
	}
}

// WithProperty appends any core property.
func WithProperty(p CoreProperty) DocOption {
	return func(opts *Doc) {
		opts.CoreProperties = append(opts.CoreProperties, p)
	}
}

// BuildDoc creates the DID Doc from options.
func BuildDoc(id DID, opts ...DocOption) *Doc {
	doc := &Doc{Context: []string{ContextV1}, ID: id}

	for _, opt := range opts {
		opt(doc)
	}

	return doc
}

// VerificationMethods returns the first VerificationMethods property.
func (doc *Doc) VerificationMethods() []VerificationMethod {
	for _, p := range doc.CoreProperties {
		if vms, ok := p.(VerificationMethods); ok {
			return vms
		}
	}

	return nil
}

// Services returns the first Services property.
func (doc *Doc) Services() []Service {
	for _, p := range doc.CoreProperties {
		if svcs, ok := p.(Services); ok {
			return svcs
		}
	}

	return nil
}

// Authentication returns the authentication methods, embedded ones first.
// References that match no local verification method are skipped.
func (doc *Doc) Authentication() []VerificationMethod {
	for _, p := range doc.CoreProperties {
		if a, ok := p.(Authentication); ok {
			return doc.resolve(jsonldAuthentication, a.Relationship)
		}
	}

	return nil
}

// KeyAgreement returns the key agreement methods, resolved like Authentication.
func (doc *Doc) KeyAgreement() []VerificationMethod {
	for _, p := range doc.CoreProperties {
		if k, ok := p.(KeyAgreement); ok {
			return doc.resolve(jsonldKeyAgreement, k.Relationship)
		}
	}

	return nil
}

// AssertionMethod returns the assertion methods, resolved like Authentication.
func (doc *Doc) AssertionMethod() []VerificationMethod {
	for _, p := range doc.CoreProperties {
		if a, ok := p.(AssertionMethod); ok {
			return doc.resolve(jsonldAssertionMethod, a.Relationship)
		}
	}

	return nil
}

// Controllers returns the controller DIDs.
func (doc *Doc) Controllers() []DID {
	for _, p := range doc.CoreProperties {
		if c, ok := p.(Controller); ok {
			return c
		}
	}

	return nil
}

// VerificationMethod finds a method by absolute or fragment reference.
func (doc *Doc) VerificationMethod(ref string) (*VerificationMethod, bool) {
	u, err := RelativeTo(doc.ID, ref)
	if err != nil {
		return nil, false
	}

	vms := doc.VerificationMethods()
	for i := range vms {
		if vms[i].ID.Equal(u) {
			return &vms[i], true
		}
	}

	return nil, false
}

func (doc *Doc) resolve(name string, r Relationship) []VerificationMethod {
	out := append([]VerificationMethod(nil), r.Embedded...)

	for _, ref := range r.References {
		vm, ok := doc.VerificationMethod(ref)
		if !ok {
			logger.Debugf("%s reference %s not found in %s, skipped", name, ref, doc.ID)

			continue
		}

		out = append(out, *vm)
	}

	return out
}

type rawVerificationMethod struct {
	ID                 string   `json:"id"`
	Type               string   `json:"type"`
	Controller         string   `json:"controller,omitempty"`
	PublicKeyJwk       *jwk.JWK `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string   `json:"publicKeyMultibase,omitempty"`
	PublicKeyBase58    string   `json:"publicKeyBase58,omitempty"`
}

func (vm *VerificationMethod) raw() rawVerificationMethod {
	r := rawVerificationMethod{
		ID:                 vm.ID.String(),
		Type:               vm.Type,
		PublicKeyJwk:       vm.PublicKeyJwk,
		PublicKeyMultibase: vm.PublicKeyMultibase,
		PublicKeyBase58:    vm.PublicKeyBase58,
	}

	if !vm.Controller.IsZero() {
		r.Controller = vm.Controller.String()
	}

	return r
}

func (r *rawVerificationMethod) method(base DID) (VerificationMethod, error) {
	id, err := RelativeTo(base, r.ID)
	if err != nil {
		return VerificationMethod{}, fmt.Errorf("verification method id: %w", err)
	}

	vm := VerificationMethod{
		ID:                 *id,
		Type:               r.Type,
		PublicKeyJwk:       r.PublicKeyJwk,
		PublicKeyMultibase: r.PublicKeyMultibase,
		PublicKeyBase58:    r.PublicKeyBase58,
	}

	if r.Controller != "" {
		vm.Controller, err = Parse(r.Controller)
		if err != nil {
			return VerificationMethod{}, fmt.Errorf("verification method controller: %w", err)
		}
	}

	return vm, nil
}

type rawService struct {
	ID              string          `json:"id"`
	Type            json.RawMessage `json:"type"`
	ServiceEndpoint json.RawMessage `json:"serviceEndpoint"`
}

// MarshalJSON writes a single type as a string and the endpoint as an object.
func (s Service) MarshalJSON() ([]byte, error) {
	var t interface{} = s.Type
	if len(s.Type) == 1 {
		t = s.Type[0]
	}

	return json.Marshal(struct {
		ID              string          `json:"id"`
		Type            interface{}     `json:"type"`
		ServiceEndpoint ServiceEndpoint `json:"serviceEndpoint"`
	}{ID: s.ID, Type: t, ServiceEndpoint: s.Endpoint})
}

// UnmarshalJSON accepts string or array types and string, object or array endpoints.
func (s *Service) UnmarshalJSON(data []byte) error {
	var raw rawService
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: service: %v", ErrInvalidDIDDocument, err)
	}

	s.ID = raw.ID

	types, err := stringOrArray(raw.Type)
	if err != nil {
		return fmt.Errorf("%w: service type: %v", ErrInvalidDIDDocument, err)
	}

	s.Type = types

	s.Endpoint, err = parseEndpoint(raw.ServiceEndpoint)

	return err
}

func parseEndpoint(data json.RawMessage) (ServiceEndpoint, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ServiceEndpoint{}, nil
	}

	switch data[0] {
	case '"':
		var uri string
		if err := json.Unmarshal(data, &uri); err != nil {
			return ServiceEndpoint{}, fmt.Errorf("%w: service endpoint: %v", ErrInvalidDIDDocument, err)
		}

		return ServiceEndpoint{URI: uri}, nil
	case '[':
		var many []json.RawMessage
		if err := json.Unmarshal(data, &many); err != nil || len(many) == 0 {
			return ServiceEndpoint{}, fmt.Errorf("%w: service endpoint array", ErrInvalidDIDDocument)
		}

		return parseEndpoint(many[0])
	default:
		var ep ServiceEndpoint
		if err := json.Unmarshal(data, &ep); err != nil {
			return ServiceEndpoint{}, fmt.Errorf("%w: service endpoint: %v", ErrInvalidDIDDocument, err)
		}

		return ep, nil
	}
}

func stringOrArray(data json.RawMessage) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		return []string{one}, nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, err
	}

	return many, nil
}

// MarshalJSON writes the W3C DID Core JSON representation with a stable member order.
func (doc *Doc) MarshalJSON() ([]byte, error) {
	type member struct {
		name  string
		value interface{}
	}

	members := []member{{jsonldContext, doc.contexts()}, {jsonldID, doc.ID.String()}}

	for _, p := range doc.CoreProperties {
		switch v := p.(type) {
		case VerificationMethods:
			raws := make([]rawVerificationMethod, len(v))
			for i := range v {
				raws[i] = v[i].raw()
			}

			members = append(members, member{jsonldVerificationMethod, raws})
		case Services:
			members = append(members, member{jsonldService, []Service(v)})
		case Authentication:
			members = append(members, member{jsonldAuthentication, v.raw()})
		case AssertionMethod:
			members = append(members, member{jsonldAssertionMethod, v.raw()})
		case KeyAgreement:
			members = append(members, member{jsonldKeyAgreement, v.raw()})
		case CapabilityInvocation:
			members = append(members, member{jsonldCapabilityInvocation, v.raw()})
		case CapabilityDelegation:
			members = append(members, member{jsonldCapabilityDelegation, v.raw()})
		case Controller:
			ids := make([]string, len(v))
			for i := range v {
				ids[i] = v[i].String()
			}

			members = append(members, member{jsonldController, ids})
		case AlsoKnownAs:
			members = append(members, member{jsonldAlsoKnownAs, []string(v)})
		case UnknownProperty:
			members = append(members, member{v.Name, v.Value})
		}
	}

	buf := bytes.Buffer{}
	buf.WriteByte('{')

	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}

		k, err := json.Marshal(m.name)
		if err != nil {
			return nil, err
		}

		v, err := json.Marshal(m.value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", m.name, err)
		}

		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (doc *Doc) contexts() []string {
	if len(doc.Context) == 0 {
		return []string{ContextV1}
	}

	return doc.Context
}

func (r Relationship) raw() []interface{} {
	out := make([]interface{}, 0, len(r.Embedded)+len(r.References))

	for i := range r.Embedded {
		out = append(out, r.Embedded[i].raw())
	}

	for _, ref := range r.References {
		out = append(out, ref)
	}

	return out
}

// UnmarshalJSON parses a DID document. Unmodelled members are kept as UnknownProperty.
func (doc *Doc) UnmarshalJSON(data []byte) error {
	if err := validate(data); err != nil {
		return err
	}

	members := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &members); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDIDDocument, err)
	}

	var id string
	if err := json.Unmarshal(members[jsonldID], &id); err != nil {
		return fmt.Errorf("%w: id: %v", ErrInvalidDIDDocument, err)
	}

	parsedID, err := Parse(id)
	if err != nil {
		return err
	}

	*doc = Doc{ID: parsedID}

	if ctx, ok := members[jsonldContext]; ok {
		doc.Context, err = stringOrArray(ctx)
		if err != nil {
			return fmt.Errorf("%w: @context: %v", ErrInvalidDIDDocument, err)
		}
	}

	delete(members, jsonldContext)
	delete(members, jsonldID)

	if err = doc.populate(members); err != nil {
		return err
	}

	unknown := make([]string, 0, len(members))
	for name := range members {
		unknown = append(unknown, name)
	}

	sort.Strings(unknown)

	for _, name := range unknown {
		compact := bytes.Buffer{}
		if err = json.Compact(&compact, members[name]); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidDIDDocument, name, err)
		}

		doc.CoreProperties = append(doc.CoreProperties, UnknownProperty{Name: name, Value: compact.Bytes()})
	}

	return nil
}

// populate consumes the modelled members in canonical order.
func (doc *Doc) populate(members map[string]json.RawMessage) error {
	if data, ok := members[jsonldVerificationMethod]; ok {
		var raws []rawVerificationMethod
		if err := json.Unmarshal(data, &raws); err != nil {
			return fmt.Errorf("%w: verificationMethod: %v", ErrInvalidDIDDocument, err)
		}

		vms := make(VerificationMethods, 0, len(raws))

		for i := range raws {
			vm, err := raws[i].method(doc.ID)
			if err != nil {
				return err
			}

			vms = append(vms, vm)
		}

		doc.CoreProperties = append(doc.CoreProperties, vms)

		delete(members, jsonldVerificationMethod)
	}

	relationships := []struct {
		name string
		wrap func(Relationship) CoreProperty
	}{
		{jsonldAuthentication, func(r Relationship) CoreProperty { return Authentication{r} }},
		{jsonldAssertionMethod, func(r Relationship) CoreProperty { return AssertionMethod{r} }},
		{jsonldKeyAgreement, func(r Relationship) CoreProperty { return KeyAgreement{r} }},
		{jsonldCapabilityInvocation, func(r Relationship) CoreProperty { return CapabilityInvocation{r} }},
		{jsonldCapabilityDelegation, func(r Relationship) CoreProperty { return CapabilityDelegation{r} }},
	}

	for _, rel := range relationships {
		data, ok := members[rel.name]
		if !ok {
			continue
		}

		r, err := doc.parseRelationship(rel.name, data)
		if err != nil {
			return err
		}

		doc.CoreProperties = append(doc.CoreProperties, rel.wrap(r))

		delete(members, rel.name)
	}

	if data, ok := members[jsonldService]; ok {
		var svcs []Service
		if err := json.Unmarshal(data, &svcs); err != nil {
			return fmt.Errorf("%w: service: %v", ErrInvalidDIDDocument, err)
		}

		doc.CoreProperties = append(doc.CoreProperties, Services(svcs))

		delete(members, jsonldService)
	}

	if data, ok := members[jsonldController]; ok {
		ids, err := stringOrArray(data)
		if err != nil {
			return fmt.Errorf("%w: controller: %v", ErrInvalidDIDDocument, err)
		}

		controllers := make(Controller, 0, len(ids))

		for _, s := range ids {
			c, err := Parse(s)
			if err != nil {
				return err
			}

			controllers = append(controllers, c)
		}

		doc.CoreProperties = append(doc.CoreProperties, controllers)

		delete(members, jsonldController)
	}

	if data, ok := members[jsonldAlsoKnownAs]; ok {
		var aka []string
		if err := json.Unmarshal(data, &aka); err != nil {
			return fmt.Errorf("%w: alsoKnownAs: %v", ErrInvalidDIDDocument, err)
		}

		doc.CoreProperties = append(doc.CoreProperties, AlsoKnownAs(aka))

		delete(members, jsonldAlsoKnownAs)
	}

	return nil
}

func (doc *Doc) parseRelationship(name string, data json.RawMessage) (Relationship, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return Relationship{}, fmt.Errorf("%w: %s: %v", ErrInvalidDIDDocument, name, err)
	}

	r := Relationship{}

	for _, e := range entries {
		var ref string
		if err := json.Unmarshal(e, &ref); err == nil {
			r.References = append(r.References, ref)

			continue
		}

		var raw rawVerificationMethod
		if err := json.Unmarshal(e, &raw); err != nil {
			return Relationship{}, fmt.Errorf("%w: %s entry: %v", ErrInvalidDIDDocument, name, err)
		}

		vm, err := raw.method(doc.ID)
		if err != nil {
			return Relationship{}, err
		}

		r.Embedded = append(r.Embedded, vm)
	}

	return r, nil
}

// ParseDocument creates an instance of DIDDocument by reading a JSON document from bytes.
func ParseDocument(data []byte) (*Doc, error) {
	doc := &Doc{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// JSONBytes converts document to json bytes.
func (doc *Doc) JSONBytes() ([]byte, error) {
	return json.Marshal(doc)
}

func validate(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDIDDocument, err)
	}

	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidDIDDocument, strings.Join(errs, "; "))
	}

	return nil
}

const schemaDoc = `{
  "type": "object",
  "required": ["id"],
  "properties": {
    "id": {"type": "string", "pattern": "^did:"},
    "verificationMethod": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type"],
        "properties": {
          "id": {"type": "string"},
          "type": {"type": "string"},
          "controller": {"type": "string"}
        }
      }
    },
    "service": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "serviceEndpoint"]
      }
    },
    "authentication": {"type": "array", "items": {"type": ["string", "object"]}},
    "assertionMethod": {"type": "array", "items": {"type": ["string", "object"]}},
    "keyAgreement": {"type": "array", "items": {"type": ["string", "object"]}},
    "capabilityInvocation": {"type": "array", "items": {"type": ["string", "object"]}},
    "capabilityDelegation": {"type": "array", "items": {"type": ["string", "object"]}},
    "alsoKnownAs": {"type": "array", "items": {"type": "string"}}
  }
}`
