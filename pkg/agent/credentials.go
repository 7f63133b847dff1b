/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/tink/go/subtle/random"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/credential"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/presentproof"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/revocation"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/anoncreds"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/store"
)

const (
	linkSecretSize = 32

	requestProofGoalCode = "Request Proof Presentation"
)

// PrepareRequestCredentialWithIssuer answers an offer-credential with a request-credential of the
// same protocol version. The credential subject is a new prism DID of the wallet. The request is
// returned unsent.
func (a *Agent) PrepareRequestCredentialWithIssuer(ctx context.Context,
	offer *message.Message) (*message.Message, error) {
	if err := requireType(offer, issuecredential.OfferCredentialMsgTypeV2,
		issuecredential.OfferCredentialMsgTypeV3); err != nil {
		return nil, err
	}

	subject, err := a.CreateNewPrismDID(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	opts, err := a.holderOptions(ctx, subject)
	if err != nil {
		return nil, err
	}

	attachment, err := a.engine.ProcessCredentialRequest(ctx, offer, opts)
	if err != nil {
		return nil, err
	}

	attachments := []message.Attachment{*attachment}

	if offer.PIURI == issuecredential.OfferCredentialMsgTypeV2 {
		o := &issuecredential.OfferCredentialV2{}
		if err = o.FromMessage(offer); err != nil {
			return nil, err
		}

		r := issuecredential.RequestV2FromOffer(o)
		r.Attachments = attachments
		r.Body.Formats = issuecredential.FormatsOf(attachments)

		return r.Message()
	}

	o := &issuecredential.OfferCredentialV3{}
	if err = o.FromMessage(offer); err != nil {
		return nil, err
	}

	r := issuecredential.RequestV3FromOffer(o)
	r.Attachments = attachments

	return r.Message()
}

// ProcessIssuedCredentialMessage reads the credential of an issue-credential message and stores it
// along with the message.
func (a *Agent) ProcessIssuedCredentialMessage(ctx context.Context,
	issue *message.Message) (verifiable.Credential, error) {
	if err := requireType(issue, issuecredential.IssueCredentialMsgTypeV2,
		issuecredential.IssueCredentialMsgTypeV3); err != nil {
		return nil, err
	}

	linkSecret, err := a.linkSecret(ctx)
	if err != nil {
		return nil, err
	}

	cred, err := a.engine.ParseCredential(ctx, issue, credential.Options{LinkSecret: linkSecret})
	if err != nil {
		return nil, err
	}

	storable, ok := cred.(verifiable.StorableCredential)
	if !ok {
		return nil, fmt.Errorf("%w: %s credentials cannot be stored", credential.ErrInvalidCredential, cred.Format())
	}

	record := store.NewCredentialRecord(storable)
	record.ThreadID = issue.ThreadID()

	if err = a.pluto.StoreCredential(ctx, record); err != nil {
		if !errors.Is(err, store.ErrDuplicateID) {
			return nil, err
		}

		a.logger.Debugf("credential %s already stored", record.ID)
	}

	issue.Direction = message.Received

	if err = a.pluto.StoreMessages(ctx, issue); err != nil {
		return nil, err
	}

	return cred, nil
}

// InitiatePresentationRequest asks toDID for a presentation of claims in format. The request comes
// from a new peer DID, routed through the mediator when there is one, and is sent and returned.
func (a *Agent) InitiatePresentationRequest(ctx context.Context, format credential.Format, toDID did.DID,
	claims credential.ClaimFilters) (*message.Message, error) {
	_, mediated := a.mediator.Config()

	from, err := a.CreateNewPeerDID(ctx, nil, mediated)
	if err != nil {
		return nil, err
	}

	attachment, err := a.engine.CreatePresentationRequest(format, claims, credential.Options{})
	if err != nil {
		return nil, err
	}

	request := &presentproof.RequestPresentationV3{
		Body: presentproof.RequestPresentationV3Body{GoalCode: requestProofGoalCode},
	}
	request.From, request.To = from, toDID
	request.Attachments = []message.Attachment{*attachment}

	msg, err := request.Message()
	if err != nil {
		return nil, err
	}

	if _, err = a.SendMessage(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// CreatePresentationForRequestProof answers a request-presentation with a presentation of cred, of
// the same protocol version. JWT presentations are signed with the key of the credential subject.
// The presentation is returned unsent.
func (a *Agent) CreatePresentationForRequestProof(ctx context.Context, request *message.Message,
	cred verifiable.Credential) (*message.Message, error) {
	if err := requireType(request, presentproof.RequestPresentationMsgTypeV2,
		presentproof.RequestPresentationMsgTypeV3); err != nil {
		return nil, err
	}

	opts := credential.Options{}

	if subject := cred.Subject(); strings.HasPrefix(subject, did.Schema+":") {
		id, err := did.Parse(subject)
		if err != nil {
			return nil, err
		}

		if opts, err = a.holderOptions(ctx, id); err != nil {
			return nil, err
		}
	} else if cred.Format() == verifiable.FormatAnonCreds {
		linkSecret, err := a.linkSecret(ctx)
		if err != nil {
			return nil, err
		}

		opts.LinkSecret = linkSecret
	}

	attachment, err := a.engine.CreatePresentation(ctx, request, cred, opts)
	if err != nil {
		return nil, err
	}

	attachments := []message.Attachment{*attachment}

	if request.PIURI == presentproof.RequestPresentationMsgTypeV2 {
		r := &presentproof.RequestPresentationV2{}
		if err = r.FromMessage(request); err != nil {
			return nil, err
		}

		p := presentproof.PresentationV2FromRequest(r)
		p.Attachments = attachments
		p.Body.Formats = issuecredential.FormatsOf(attachments)

		return p.Message()
	}

	r := &presentproof.RequestPresentationV3{}
	if err = r.FromMessage(request); err != nil {
		return nil, err
	}

	p := presentproof.PresentationV3FromRequest(r)
	p.Attachments = attachments

	return p.Message()
}

// HandlePresentation verifies a presentation against the request the agent sent on its thread.
func (a *Agent) HandlePresentation(ctx context.Context, presentation *message.Message) (bool, error) {
	if err := requireType(presentation, presentproof.PresentationMsgTypeV2,
		presentproof.PresentationMsgTypeV3); err != nil {
		return false, err
	}

	request, err := a.threadMessage(ctx, presentation.ThreadID(), message.Sent,
		presentproof.RequestPresentationMsgTypeV2, presentproof.RequestPresentationMsgTypeV3)
	if err != nil {
		return false, err
	}

	attachment, ok := request.FirstAttachment()
	if !ok {
		return false, fmt.Errorf("%w: request %s has no attachment", credential.ErrInvalidAttachment, request.ID)
	}

	presentation.Direction = message.Received

	if err = a.pluto.StoreMessages(ctx, presentation); err != nil {
		return false, err
	}

	return a.engine.VerifyPresentation(ctx, presentation, credential.Options{Request: attachment})
}

// HandleRevocationNotification marks revoked the credential issued on the thread the notification
// names.
func (a *Agent) HandleRevocationNotification(ctx context.Context, msg *message.Message) error {
	if err := requireType(msg, revocation.NotificationMsgType); err != nil {
		return err
	}

	n := &revocation.Notification{}
	if err := n.FromMessage(msg); err != nil {
		return err
	}

	thid := n.Body.IssueCredentialProtocolThreadID

	records, err := a.pluto.CredentialsOfThread(ctx, thid)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}

	if len(ids) == 0 {
		// records restored from a backup carry no thread
		id, err := a.issuedCredentialID(ctx, thid)
		if err != nil {
			return err
		}

		ids = append(ids, id)
	}

	for _, id := range ids {
		if err = a.pluto.RevokeCredential(ctx, id); err != nil {
			return fmt.Errorf("revoke credential %s: %w", id, err)
		}

		a.logger.Infof("credential %s revoked by %s", id, n.From)
	}

	return nil
}

func (a *Agent) issuedCredentialID(ctx context.Context, thid string) (string, error) {
	issue, err := a.threadMessage(ctx, thid, message.Received,
		issuecredential.IssueCredentialMsgTypeV2, issuecredential.IssueCredentialMsgTypeV3)
	if err != nil {
		return "", err
	}

	attachment, ok := issue.FirstAttachment()
	if !ok {
		return "", fmt.Errorf("%w: issue %s has no attachment", credential.ErrInvalidAttachment, issue.ID)
	}

	data, err := attachment.Bytes()
	if err != nil {
		return "", fmt.Errorf("%w: %v", credential.ErrInvalidAttachment, err)
	}

	for _, restorationID := range credential.RestorationIDs {
		cred, err := a.engine.ImportCredential([]byte(strings.TrimSpace(string(data))), restorationID,
			credential.Options{})
		if err != nil {
			continue
		}

		if storable, ok := cred.(verifiable.StorableCredential); ok {
			return store.NewCredentialRecord(storable).ID, nil
		}
	}

	return "", fmt.Errorf("%w: issue %s", credential.ErrInvalidCredential, issue.ID)
}

// threadMessage returns the newest message of thid in direction with one of piuris.
func (a *Agent) threadMessage(ctx context.Context, thid string, direction message.Direction,
	piuris ...string) (*message.Message, error) {
	msgs, err := a.pluto.MessagesOfThread(ctx, thid)
	if err != nil {
		return nil, err
	}

	var found *message.Message

	for _, msg := range msgs {
		if msg.Direction != direction || requireType(msg, piuris...) != nil {
			continue
		}

		if found == nil || msg.CreatedTime.After(found.CreatedTime) {
			found = msg
		}
	}

	if found == nil {
		return nil, fmt.Errorf("%w: no %s message of thread %s", ErrThreadNotFound, strings.Join(piuris, " or "), thid)
	}

	return found, nil
}

// holderOptions are the engine options of subject: its signing key, the key id and the link secret.
func (a *Agent) holderOptions(ctx context.Context, subject did.DID) (credential.Options, error) {
	key, kid, err := a.signingKey(ctx, subject)
	if err != nil {
		return credential.Options{}, err
	}

	linkSecret, err := a.linkSecret(ctx)
	if err != nil {
		return credential.Options{}, err
	}

	signer, ok := key.(keys.Signer)
	if !ok {
		return credential.Options{}, fmt.Errorf("%w: %s has no signing key", ErrCannotFindDIDKeyPair, subject)
	}

	return credential.Options{Subject: subject.String(), KeyID: kid, Signer: signer, LinkSecret: linkSecret}, nil
}

// linkSecret returns the wallet link secret, creating it on first use.
func (a *Agent) linkSecret(ctx context.Context) (*anoncreds.LinkSecret, error) {
	a.secretMu.Lock()
	defer a.secretMu.Unlock()

	secret, err := a.pluto.LinkSecret(ctx)
	if err == nil {
		return secret, nil
	}

	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	value := new(big.Int).SetBytes(random.GetRandomBytes(linkSecretSize))
	secret = &anoncreds.LinkSecret{ID: anoncreds.DefaultLinkSecretID, Secret: value.String()}

	if err = a.pluto.StoreLinkSecret(ctx, secret); err != nil {
		return nil, err
	}

	a.logger.Debugf("created link secret")

	return secret, nil
}
