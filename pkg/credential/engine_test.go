/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mockanoncreds "github.com/hyperledger/edge-agent-sdk-go/internal/mock/anoncreds"
	"github.com/hyperledger/edge-agent-sdk-go/internal/sdjwt/issuer"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/presentproof"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/anoncreds"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/statuslist"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr/peer"
)

const (
	requestPresentation = "https://didcomm.atalaprism.io/present-proof/3.0/request-presentation"
	presentation        = "https://didcomm.atalaprism.io/present-proof/3.0/presentation"
	offerCredential     = "https://didcomm.org/issue-credential/3.0/offer-credential"
	issueCredential     = "https://didcomm.org/issue-credential/3.0/issue-credential"

	statusListURL = "https://issuer.example/status/1"
	schemaURL     = "https://issuer.example/schemas/passport"
	credDefURL    = "https://issuer.example/definitions/passport"
)

type fakeDownloader map[string][]byte

func (d fakeDownloader) Download(_ context.Context, url string) ([]byte, error) {
	data, ok := d[url]
	if !ok {
		return nil, fmt.Errorf("not found: %s", url)
	}

	return data, nil
}

type party struct {
	id     string
	signer keys.Signer
}

func newParty(t *testing.T) *party {
	t.Helper()

	key, err := kms.New().CreatePrivateKey(keys.Ed25519)
	require.NoError(t, err)

	id, err := peer.Create(nil, []keys.PublicKey{key.PublicKey()}, nil)
	require.NoError(t, err)

	return &party{id: id.String(), signer: key.(keys.Signer)}
}

type fixture struct {
	engine     *Engine
	issuer     *party
	holder     *party
	downloads  fakeDownloader
	verifier   *mockanoncreds.MockVerifier
	linkSecret *anoncreds.LinkSecret
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		issuer:     newParty(t),
		holder:     newParty(t),
		downloads:  fakeDownloader{},
		verifier:   &mockanoncreds.MockVerifier{},
		linkSecret: &anoncreds.LinkSecret{ID: "link-secret", Secret: "42"},
	}

	f.engine = New(
		WithResolver(vdr.New(vdr.WithVDR(peer.New()))),
		WithDownloader(f.downloads),
		WithAnonCreds(&mockanoncreds.MockProver{}, f.verifier, &mockanoncreds.MockMetadataStore{}),
	)

	return f
}

func (f *fixture) jwtCredential(t *testing.T, status *verifiable.Status) *message.Message {
	t.Helper()

	vc, err := verifiable.NewJWTCredential(&verifiable.W3CCredential{
		Context:    []string{"https://www.w3.org/2018/credentials/v1"},
		CredID:     "urn:uuid:cred-1",
		Types:      []string{"VerifiableCredential", "PassportCredential"},
		CredIssuer: verifiable.Issuer{ID: f.issuer.id},
		CredentialSubject: map[string]interface{}{
			"id":   f.holder.id,
			"name": "Alice",
			"age":  30,
		},
		CredStatus: status,
	}, "", f.issuer.signer)
	require.NoError(t, err)

	return message.New(issueCredential, message.WithThread("thid-jwt", ""), message.WithAttachments(
		message.NewBase64Attachment("", "application/jwt", JWTFormat, []byte(vc.Serialize()))))
}

func (f *fixture) holderOptions() Options {
	return Options{Subject: f.holder.id, Signer: f.holder.signer}
}

func requestMessage(a *message.Attachment) *message.Message {
	return message.New(requestPresentation, message.WithAttachments(*a))
}

func presentationMessage(a *message.Attachment) *message.Message {
	return message.New(presentation, message.WithAttachments(*a))
}

func TestParseFormat(t *testing.T) {
	for id, want := range map[string]Format{
		JWTFormat:                   FormatJWT,
		PrismJWTFormat:              FormatJWT,
		SDJWTFormat:                 FormatSDJWT,
		AnonCredsOfferFormat:        FormatAnonCreds,
		AnonCredsProofRequestFormat: FormatAnonCreds,
		DefinitionFormat:            FormatPresentationExchange,
		SubmissionFormat:            FormatPresentationExchange,
	} {
		got, err := ParseFormat(id)
		require.NoError(t, err)
		require.Equal(t, want, got, id)
	}

	_, err := ParseFormat("ldp_vc")
	require.ErrorIs(t, err, ErrUnsupportedCredentialFormat)
}

func TestJWTPresentationExchange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cred, err := f.engine.ParseCredential(ctx, f.jwtCredential(t, nil), Options{})
	require.NoError(t, err)
	require.Equal(t, f.issuer.id, cred.Issuer())
	require.Equal(t, "Alice", cred.Claims()["name"])

	claims := ClaimFilters{{Paths: []string{"$.vc.credentialSubject.name"}, Pattern: "^Al", Required: true}}

	request, err := f.engine.CreatePresentationRequest(FormatJWT, claims, Options{Domain: "verifier.example"})
	require.NoError(t, err)
	require.Equal(t, DefinitionFormat, request.Format)

	t.Run("verified", func(t *testing.T) {
		r := require.New(t)

		a, err := f.engine.CreatePresentation(ctx, requestMessage(request), cred, f.holderOptions())
		r.NoError(err)
		r.Equal(SubmissionFormat, a.Format)

		ok, err := f.engine.VerifyPresentation(ctx, presentationMessage(a), Options{Request: request})
		r.NoError(err)
		r.True(ok)
	})

	t.Run("missing claim", func(t *testing.T) {
		other, err := f.engine.CreatePresentationRequest(FormatJWT, ClaimFilters{{
			Paths: []string{"$.vc.credentialSubject.email"}, Required: true,
		}}, Options{})
		require.NoError(t, err)

		_, err = f.engine.CreatePresentation(ctx, requestMessage(other), cred, f.holderOptions())
		require.ErrorIs(t, err, ErrMissingClaim)

		var missing *MissingClaimError

		require.ErrorAs(t, err, &missing)
		require.Equal(t, []string{"$.vc.credentialSubject.email"}, missing.Paths)
	})

	t.Run("challenge mismatch", func(t *testing.T) {
		r := require.New(t)

		a, err := f.engine.CreatePresentation(ctx, requestMessage(request), cred, f.holderOptions())
		r.NoError(err)

		req := &DefinitionRequest{}
		r.NoError(decodeAttachment(request, req))

		req.Options = &presentproof.Options{Challenge: "another challenge", Domain: "verifier.example"}

		tampered, err := message.NewJSONAttachment("", DefinitionFormat, req)
		r.NoError(err)

		ok, err := f.engine.VerifyPresentation(ctx, presentationMessage(a), Options{Request: &tampered})
		r.False(ok)
		r.ErrorIs(err, ErrCannotVerifyPresentationInputs)
		r.ErrorIs(err, ErrInvalidChallenge)
	})

	t.Run("missing options", func(t *testing.T) {
		_, err := f.engine.CreatePresentation(ctx, requestMessage(request), cred, Options{Subject: f.holder.id})
		require.ErrorIs(t, err, ErrMissingAndIsRequiredForOperation)

		a, err := f.engine.CreatePresentation(ctx, requestMessage(request), cred, f.holderOptions())
		require.NoError(t, err)

		_, err = f.engine.VerifyPresentation(ctx, presentationMessage(a), Options{})
		require.ErrorIs(t, err, ErrMissingAndIsRequiredForOperation)
	})
}

func TestCompactJWTPresentation(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	cred, err := f.engine.ParseCredential(ctx, f.jwtCredential(t, nil), Options{})
	r.NoError(err)

	request, err := message.NewJSONAttachment("", PrismJWTFormat, map[string]interface{}{
		"options": map[string]string{"challenge": "c-1", "domain": "verifier.example"},
	})
	r.NoError(err)

	a, err := f.engine.CreatePresentation(ctx, requestMessage(&request), cred, f.holderOptions())
	r.NoError(err)
	r.Equal(PrismJWTFormat, a.Format)

	claims := ClaimFilters{{Paths: []string{"$.vc.credentialSubject.name"}, Const: "Alice", Required: true}}

	ok, err := f.engine.VerifyPresentation(ctx, presentationMessage(a), Options{Request: &request, Claims: claims})
	r.NoError(err)
	r.True(ok)

	ok, err = f.engine.VerifyPresentation(ctx, presentationMessage(a), Options{Request: &request, Claims: ClaimFilters{{
		Paths: []string{"$.vc.credentialSubject.name"}, Const: "Bob", Required: true,
	}}})
	r.False(ok)
	r.ErrorIs(err, ErrMissingClaim)
}

func TestRevokedCredential(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	list := statuslist.New(0)
	r.NoError(list.Set(7, true))

	encoded, err := list.Encode()
	r.NoError(err)

	statusCredential, err := json.Marshal(map[string]interface{}{
		"@context": []string{"https://www.w3.org/2018/credentials/v1"},
		"type":     []string{"VerifiableCredential", "StatusList2021Credential"},
		"issuer":   f.issuer.id,
		"credentialSubject": map[string]interface{}{
			"type":          statuslist.ListType,
			"statusPurpose": statuslist.PurposeRevocation,
			"encodedList":   encoded,
		},
	})
	r.NoError(err)

	f.downloads[statusListURL] = statusCredential

	entry := func(index string) *verifiable.Status {
		return &verifiable.Status{
			ID:                   statusListURL + "#" + index,
			Type:                 statuslist.EntryType,
			StatusPurpose:        statuslist.PurposeRevocation,
			StatusListIndex:      index,
			StatusListCredential: statusListURL,
		}
	}

	valid, err := f.engine.ParseCredential(ctx, f.jwtCredential(t, entry("3")), Options{})
	r.NoError(err)
	r.NoError(f.engine.CheckStatus(ctx, valid))

	revoked, err := f.engine.ParseCredential(ctx, f.jwtCredential(t, entry("7")), Options{})
	r.NoError(err)
	r.ErrorIs(f.engine.CheckStatus(ctx, revoked), ErrCredentialRevoked)

	request, err := f.engine.CreatePresentationRequest(FormatJWT, nil, Options{})
	r.NoError(err)

	a, err := f.engine.CreatePresentation(ctx, requestMessage(request), revoked, f.holderOptions())
	r.NoError(err)

	ok, err := f.engine.VerifyPresentation(ctx, presentationMessage(a), Options{Request: request})
	r.False(ok)
	r.ErrorIs(err, ErrCredentialRevoked)
}

func TestSDJWTPresentationExchange(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	token, err := issuer.New(f.issuer.id, map[string]interface{}{
		"given_name":  "Alice",
		"family_name": "Doe",
		"vct":         "IdentityCredential",
	}, f.issuer.signer, issuer.WithAlwaysVisible("vct"), issuer.WithSubject(f.holder.id))
	r.NoError(err)

	issue := message.New(issueCredential, message.WithAttachments(
		message.NewBase64Attachment("", "application/sd-jwt", SDJWTFormat, []byte(token.Serialize()))))

	cred, err := f.engine.ParseCredential(ctx, issue, Options{})
	r.NoError(err)
	r.IsType(&sdjwt.Credential{}, cred)

	request, err := f.engine.CreatePresentationRequest(FormatSDJWT, ClaimFilters{{
		Paths: []string{"$.given_name"}, Required: true,
	}}, Options{})
	r.NoError(err)

	a, err := f.engine.CreatePresentation(ctx, requestMessage(request), cred, f.holderOptions())
	r.NoError(err)

	resp := &SubmissionResponse{}
	r.NoError(decodeAttachment(a, resp))
	r.Len(resp.VerifiablePresentation, 1)

	req := &DefinitionRequest{}
	r.NoError(decodeAttachment(request, req))

	challenge, domain := req.challenge()
	r.NotEmpty(challenge)

	disclosed, err := f.engine.verifySDJWT(ctx, resp.VerifiablePresentation[0], challenge, domain)
	r.NoError(err)
	r.Equal("Alice", disclosed["given_name"])
	r.NotContains(disclosed, "family_name")

	ok, err := f.engine.VerifyPresentation(ctx, presentationMessage(a), Options{Request: request})
	r.NoError(err)
	r.True(ok)

	_, err = f.engine.CreatePresentation(ctx, requestMessage(request), &anoncreds.CredentialStack{}, Options{})
	r.ErrorIs(err, ErrUnsupportedCredentialFormat)
}

func TestAnonCreds(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	schema, err := json.Marshal(&anoncreds.Schema{
		Name: "passport", Version: "1.0", AttrNames: []string{"name", "age"}, IssuerID: f.issuer.id,
	})
	r.NoError(err)

	def, err := json.Marshal(&anoncreds.CredentialDefinition{
		IssuerID: f.issuer.id, SchemaID: schemaURL, Type: "CL", Tag: "default", Value: json.RawMessage(`{}`),
	})
	r.NoError(err)

	f.downloads[schemaURL] = schema
	f.downloads[credDefURL] = def

	offerAttachment, err := message.NewJSONAttachment("", AnonCredsOfferFormat, &anoncreds.CredentialOffer{
		SchemaID: schemaURL, CredDefID: credDefURL, Nonce: "1234", KeyCorrectnessProof: json.RawMessage(`{}`),
	})
	r.NoError(err)

	offer := message.New(offerCredential, message.WithThread("thid-anon", ""), message.WithAttachments(offerAttachment))

	opts := Options{Subject: f.holder.id, LinkSecret: f.linkSecret}

	reqAttachment, err := f.engine.ProcessCredentialRequest(ctx, offer, opts)
	r.NoError(err)
	r.Equal(AnonCredsRequestFormat, reqAttachment.Format)

	req := &anoncreds.CredentialRequest{}
	r.NoError(decodeAttachment(reqAttachment, req))
	r.Equal("1234", req.Nonce)
	r.Equal(f.holder.id, req.Entropy)

	credAttachment, err := message.NewJSONAttachment("", AnonCredsCredentialFormat, &anoncreds.Credential{
		SchemaID:  schemaURL,
		CredDefID: credDefURL,
		Values: map[string]anoncreds.AttributeValue{
			"name": {Raw: "Alice", Encoded: "1139481716457488690172217916278103335"},
			"age":  {Raw: "30", Encoded: "30"},
		},
		Signature:                 json.RawMessage(`{}`),
		SignatureCorrectnessProof: json.RawMessage(`{}`),
	})
	r.NoError(err)

	issue := message.New(issueCredential, message.WithThread("thid-anon", ""), message.WithAttachments(credAttachment))

	cred, err := f.engine.ParseCredential(ctx, issue, opts)
	r.NoError(err)
	r.Equal(f.issuer.id, cred.Issuer())
	r.Equal("passport", cred.Type()[0])

	_, err = f.engine.ParseCredential(ctx, issue, opts)
	r.ErrorIs(err, ErrMissingCredentialMetadata)

	request, err := f.engine.CreatePresentationRequest(FormatAnonCreds, ClaimFilters{
		{Name: "name", Required: true},
		{Name: "age", Pattern: ">=", Const: 18, Required: true},
	}, Options{})
	r.NoError(err)
	r.Equal(AnonCredsProofRequestFormat, request.Format)

	proof, err := f.engine.CreatePresentation(ctx, requestMessage(request), cred, opts)
	r.NoError(err)
	r.Equal(AnonCredsProofFormat, proof.Format)

	ok, err := f.engine.VerifyPresentation(ctx, presentationMessage(proof), Options{Request: request})
	r.NoError(err)
	r.True(ok)

	t.Run("unsatisfied predicate", func(t *testing.T) {
		adults, err := f.engine.CreatePresentationRequest(FormatAnonCreds, ClaimFilters{
			{Name: "age", Pattern: ">", Const: 65, Required: true},
		}, Options{})
		require.NoError(t, err)

		_, err = f.engine.CreatePresentation(ctx, requestMessage(adults), cred, opts)
		require.ErrorIs(t, err, ErrMissingClaim)
	})

	t.Run("rejected proof", func(t *testing.T) {
		f.verifier.VerifyErr = fmt.Errorf("bad proof")
		defer func() { f.verifier.VerifyErr = nil }()

		ok, err := f.engine.VerifyPresentation(ctx, presentationMessage(proof), Options{Request: request})
		require.False(t, ok)
		require.ErrorIs(t, err, ErrCannotVerifyPresentationInputs)
	})

	t.Run("stale metadata", func(t *testing.T) {
		store := &mockanoncreds.MockMetadataStore{}
		now := time.Now()

		e := New(WithDownloader(f.downloads), WithMetadataTTL(time.Hour),
			WithAnonCreds(&mockanoncreds.MockProver{}, f.verifier, store),
			WithClock(func() time.Time { return now }))

		_, err := e.ProcessCredentialRequest(ctx, offer, opts)
		require.NoError(t, err)

		_, err = store.GetRequestMetadata(ctx, "thid-anon")
		require.NoError(t, err)

		now = now.Add(2 * time.Hour)

		_, err = e.ProcessCredentialRequest(ctx, message.New(offerCredential,
			message.WithThread("thid-later", ""), message.WithAttachments(offerAttachment)), opts)
		require.NoError(t, err)

		_, err = store.GetRequestMetadata(ctx, "thid-anon")
		require.ErrorIs(t, err, ErrMissingCredentialMetadata)
	})
}

func TestImportCredential(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	cred, err := f.engine.ParseCredential(ctx, f.jwtCredential(t, nil), Options{})
	r.NoError(err)

	storable, ok := cred.(verifiable.StorableCredential)
	r.True(ok)

	restored, err := f.engine.ImportCredential(storable.StorableData(), storable.RestorationID(), Options{})
	r.NoError(err)
	r.Equal(cred.ID(), restored.ID())

	_, err = f.engine.ImportCredential(nil, "ldp", Options{})
	r.ErrorIs(err, ErrUnsupportedCredentialFormat)
}
