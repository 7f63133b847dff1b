/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/errcode"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/presentproof"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/presexch"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt/common"
	sdjwtverifier "github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt/verifier"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/statuslist"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
)

// VerifyPresentation checks a presentation message. opts.Request carries the attachment of the
// request the presentation answers; it is required for presentation exchange and AnonCreds. Every
// failed check is reported in one error grouped under ErrCannotVerifyPresentationInputs.
func (e *Engine) VerifyPresentation(ctx context.Context, presentation *message.Message,
	opts Options) (bool, error) {
	a, id, err := attachmentOf(presentation)
	if err != nil {
		return false, err
	}

	switch id {
	case SubmissionFormat:
		return e.verifySubmission(ctx, a, opts)
	case JWTFormat, PrismJWTFormat:
		challenge, domain := requestChallenge(opts)

		data, err := a.Bytes()
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
		}

		if err = e.verifyCompactPresentation(ctx, strings.TrimSpace(string(data)), challenge, domain,
			opts.Claims); err != nil {
			return false, err
		}

		return true, nil
	case SDJWTFormat:
		challenge, domain := requestChallenge(opts)

		data, err := a.Bytes()
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
		}

		disclosed, err := e.verifySDJWT(ctx, strings.TrimSpace(string(data)), challenge, domain)
		if err != nil {
			return false, aggregate([]error{err})
		}

		if err = presexch.EvaluateConstraints(disclosed, opts.Claims.Constraints()); err != nil {
			return false, aggregate([]error{err})
		}

		return true, nil
	case AnonCredsProofFormat:
		return e.verifyAnonPresentation(ctx, a, opts)
	default:
		return false, fmt.Errorf("%w: %s cannot carry a presentation", ErrUnsupportedCredentialFormat, id)
	}
}

// requestChallenge returns the challenge and domain of opts.Request, falling back to opts.
func requestChallenge(opts Options) (string, string) {
	if opts.Request == nil {
		return opts.Challenge, opts.Domain
	}

	o := presentproof.RequestOptions([]message.Attachment{*opts.Request})

	return o.Challenge, o.Domain
}

// CheckStatus reports whether the status list of cred marks it revoked or suspended. Credentials
// without a status entry are valid.
func (e *Engine) CheckStatus(ctx context.Context, cred verifiable.Credential) error {
	revocable, ok := cred.(verifiable.RevocableCredential)
	if !ok || revocable.Status() == nil {
		return nil
	}

	entry := revocable.Status()
	if entry.StatusListCredential == "" {
		return fmt.Errorf("%w: no statusListCredential", ErrInvalidStatusList)
	}

	if e.downloader == nil {
		return fmt.Errorf("%w: downloader", ErrMissingAndIsRequiredForOperation)
	}

	data, err := e.downloader.Download(ctx, entry.StatusListCredential)
	if err != nil {
		return fmt.Errorf("%w: download %s: %v", ErrInvalidStatusList, entry.StatusListCredential, err)
	}

	subject, err := e.statusListSubject(ctx, strings.TrimSpace(string(data)))
	if err != nil {
		return err
	}

	return statuslist.Check(entry, subject)
}

// statusListSubject reads the credential subject of a status list credential published either as a
// signed JWT or as plain JSON.
func (e *Engine) statusListSubject(ctx context.Context, data string) (map[string]interface{}, error) {
	if jwt.IsJWS(data) {
		list, err := verifiable.ParseJWTCredential(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStatusList, err)
		}

		pubs, err := e.publicKeysOf(ctx, list.Issuer())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStatusList, err)
		}

		if err = list.VerifySignature(pubs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStatusList, err)
		}

		return list.Claims(), nil
	}

	list, err := verifiable.ParseW3CCredential([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatusList, err)
	}

	return list.Claims(), nil
}

func (e *Engine) verifySubmission(ctx context.Context, a *message.Attachment, opts Options) (bool, error) {
	if opts.Request == nil {
		return false, missingOption("request", FormatPresentationExchange)
	}

	req := &DefinitionRequest{}
	if err := decodeAttachment(opts.Request, req); err != nil {
		return false, err
	}

	if req.PresentationDefinition == nil {
		return false, fmt.Errorf("%w: no presentation_definition", ErrInvalidPresentationDefinition)
	}

	data, err := a.Bytes()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
	}

	resp := &SubmissionResponse{}
	if err = json.Unmarshal(data, resp); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidPresentationSubmission, err)
	}

	if resp.PresentationSubmission == nil {
		return false, fmt.Errorf("%w: no presentation_submission", ErrInvalidPresentationSubmission)
	}

	var root interface{}
	if err = json.Unmarshal(data, &root); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidPresentationSubmission, err)
	}

	if err = checkSubmissionFormats(req.PresentationDefinition, resp.PresentationSubmission); err != nil {
		return false, aggregate([]error{err})
	}

	challenge, domain := req.challenge()

	docs, err := req.PresentationDefinition.Match(ctx, root, resp.PresentationSubmission,
		e.hopVerifier(challenge, domain))
	if err != nil {
		return false, aggregate([]error{err})
	}

	var errs []error

	for id, doc := range docs {
		if err = presexch.EvaluateConstraints(doc, opts.Claims.Constraints()); err != nil {
			errs = append(errs, fmt.Errorf("input descriptor %s: %w", id, err))
		}
	}

	if len(errs) != 0 {
		return false, aggregate(errs)
	}

	return true, nil
}

// checkSubmissionFormats holds every mapping to the formats the definition accepts, whatever the
// submission claims. A JWT mapping starts at the holder signed presentation and nests exactly one
// credential; an SD-JWT mapping selects the presentation itself.
func checkSubmissionFormats(pd *presexch.PresentationDefinition, submission *presexch.PresentationSubmission) error {
	var errs []error

	for _, m := range submission.DescriptorMap {
		accepted := pd.Format
		if d := pd.InputDescriptor(m.ID); d != nil && d.Format != nil {
			accepted = d.Format
		}

		if err := checkMappingFormat(accepted, m); err != nil {
			errs = append(errs, fmt.Errorf("input descriptor %s: %w", m.ID, err))
		}
	}

	return errcode.Aggregate(ErrInvalidPresentationSubmission, errs)
}

func checkMappingFormat(accepted *presexch.Format, m *presexch.InputDescriptorMapping) error {
	jwtAccepted := accepted == nil || accepted.Jwt != nil || accepted.JwtVC != nil || accepted.JwtVP != nil
	sdjwtAccepted := accepted == nil || accepted.SDJWT != nil

	switch {
	case m.Format == presexch.FormatJWTVP && jwtAccepted:
		nested := m.PathNested
		if nested == nil {
			return fmt.Errorf("%s mapping has no path_nested credential", m.Format)
		}

		if nested.Format != presexch.FormatJWTVC && nested.Format != presexch.FormatJWT {
			return fmt.Errorf("%s cannot be nested in %s", nested.Format, m.Format)
		}

		if nested.PathNested != nil {
			return fmt.Errorf("%s mapping nests more than one level", m.Format)
		}

		return nil
	case m.Format == presexch.FormatSDJWT && sdjwtAccepted:
		if m.PathNested != nil {
			return fmt.Errorf("%s mapping cannot have path_nested", m.Format)
		}

		return nil
	case jwtAccepted && (m.Format == presexch.FormatJWTVC || m.Format == presexch.FormatJWT):
		return fmt.Errorf("%s mapping must be wrapped in a %s presentation", m.Format, presexch.FormatJWTVP)
	default:
		return fmt.Errorf("format %q is not accepted by the definition", m.Format)
	}
}

// hopVerifier checks each token a submission path selects and hands back the claims the next path
// or the constraints apply to.
func (e *Engine) hopVerifier(challenge, domain string) presexch.CredentialVerifier {
	return func(ctx context.Context, format string, selected interface{}) (interface{}, error) {
		compact, ok := selected.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s value is not a compact token", ErrInvalidPresentationSubmission, format)
		}

		switch format {
		case presexch.FormatJWTVP:
			vp, err := e.verifyJWTPresentation(ctx, compact, challenge, domain)
			if err != nil {
				return nil, err
			}

			return vp.Token.Payload, nil
		case presexch.FormatJWTVC, presexch.FormatJWT:
			c, err := e.verifyJWTCredential(ctx, compact)
			if err != nil {
				return nil, err
			}

			return c.Payload(), nil
		case presexch.FormatSDJWT:
			return e.verifySDJWT(ctx, compact, challenge, domain)
		default:
			return nil, fmt.Errorf("%w: submission format %s", ErrUnsupportedCredentialFormat, format)
		}
	}
}

// verifyCompactPresentation checks a JWT presentation and every credential it embeds. With claims,
// at least one credential must satisfy them.
func (e *Engine) verifyCompactPresentation(ctx context.Context, compact, challenge, domain string,
	claims ClaimFilters) error {
	vp, err := e.verifyJWTPresentation(ctx, compact, challenge, domain)
	if err != nil {
		return aggregate([]error{err})
	}

	var (
		creds     []string
		errs      []error
		satisfied = claims.Constraints() == nil
	)

	if vp.Claims.Presentation != nil {
		creds = vp.Claims.Presentation.Credentials()
	}

	for _, compactVC := range creds {
		c, err := e.verifyJWTCredential(ctx, compactVC)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		if !satisfied && presexch.EvaluateConstraints(c.Payload(), claims.Constraints()) == nil {
			satisfied = true
		}
	}

	if !satisfied {
		errs = append(errs, &presexch.MissingClaimError{Paths: claimPaths(claims)})
	}

	return aggregate(errs)
}

func (e *Engine) verifyJWTPresentation(ctx context.Context, compact, challenge,
	domain string) (*verifiable.JWTPresentation, error) {
	vp, err := verifiable.ParseJWTPresentation(compact)
	if err != nil {
		return nil, err
	}

	pubs, err := e.publicKeysOf(ctx, vp.Holder())
	if err != nil {
		return nil, fmt.Errorf("%w: holder %s: %v", ErrInvalidJWTPresentation, vp.Holder(), err)
	}

	if _, err = vp.Token.VerifyWithAny(pubs); err != nil {
		return nil, fmt.Errorf("%w: holder %s: %v", ErrInvalidJWTPresentation, vp.Holder(), err)
	}

	var errs []error

	if challenge != "" && vp.Claims.Nonce != challenge {
		errs = append(errs, fmt.Errorf("%w: nonce %q", ErrInvalidChallenge, vp.Claims.Nonce))
	}

	if domain != "" && !vp.Claims.Audience.Contains(domain) {
		errs = append(errs, fmt.Errorf("%w: audience %v does not contain %s", ErrInvalidChallenge,
			[]string(vp.Claims.Audience), domain))
	}

	if vp.Claims.Expiry != nil && vp.Claims.Expiry.Time().Before(e.now()) {
		errs = append(errs, fmt.Errorf("%w: presentation of %s", ErrCredentialExpired, vp.Holder()))
	}

	return vp, errcode.Aggregate(ErrInvalidJWTPresentation, errs)
}

// verifyJWTCredential checks the issuer signature, the expiration date and the status of a JWT
// credential.
func (e *Engine) verifyJWTCredential(ctx context.Context, compact string) (*verifiable.JWTCredential, error) {
	c, err := verifiable.ParseJWTCredential(compact)
	if err != nil {
		return nil, err
	}

	var errs []error

	if pubs, err := e.publicKeysOf(ctx, c.Issuer()); err != nil {
		errs = append(errs, fmt.Errorf("issuer %s: %w", c.Issuer(), err))
	} else if _, err = c.Token().VerifyWithAny(pubs); err != nil {
		errs = append(errs, fmt.Errorf("issuer %s: %w", c.Issuer(), err))
	}

	if verifiable.IsExpired(c, e.now()) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrCredentialExpired, c.ID()))
	}

	if err := e.CheckStatus(ctx, c); err != nil {
		errs = append(errs, err)
	}

	return c, errcode.Aggregate(ErrCannotVerifyCredential, errs)
}

// verifySDJWT verifies the issuer signature, the disclosures and the holder binding of an SD-JWT
// presentation and returns the disclosed claims. The binding must be signed by a key of the sub DID
// and carry the challenge as nonce.
func (e *Engine) verifySDJWT(ctx context.Context, presentation, challenge,
	domain string) (map[string]interface{}, error) {
	cfp := common.ParseCombinedFormatForPresentation(presentation)

	token, err := jwt.Parse(cfp.SDJWT)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	issuer := token.LookupStringClaim("iss")

	pubs, err := e.publicKeysOf(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: issuer %s: %w", ErrCannotVerifyCredential, issuer, err)
	}

	holder := token.LookupStringClaim("sub")
	if holder == "" {
		return nil, fmt.Errorf("%w: no sub to bind the presentation to", ErrCannotVerifyCredential)
	}

	holderKeys, err := e.publicKeysOf(ctx, holder)
	if err != nil {
		return nil, fmt.Errorf("%w: holder %s: %w", ErrCannotVerifyCredential, holder, err)
	}

	disclosed, err := sdjwtverifier.Parse(presentation,
		sdjwtverifier.WithIssuerKeys(pubs),
		sdjwtverifier.WithSigningAlgorithms(supportedAlgorithms),
		sdjwtverifier.WithClock(e.now),
		sdjwtverifier.WithHolderBindingRequired(true),
		sdjwtverifier.WithHolderKeys(holderKeys),
		sdjwtverifier.WithExpectedNonceForHolderBinding(challenge),
		sdjwtverifier.WithExpectedAudienceForHolderBinding(domain))

	switch {
	case errors.Is(err, sdjwtverifier.ErrHolderBinding):
		return nil, fmt.Errorf("%w: %w", ErrInvalidChallenge, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrCannotVerifyCredential, err)
	}

	return disclosed, nil
}

func claimPaths(claims ClaimFilters) []string {
	var paths []string

	for _, f := range claims {
		paths = append(paths, f.Paths...)
	}

	return paths
}

func aggregate(errs []error) error {
	return errcode.Aggregate(ErrCannotVerifyPresentationInputs, errs)
}
