package notify

import (
	"bytes"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/pkg/errors"
)

var utf8Params = map[string]string{"charset": "utf-8"}

// Compose builds the RFC 5322 message sent over SMTP.
//
// Layout, depending on the body mode and attachments:
//
//	both:          multipart/alternative (text/plain, text/html)
//	text|html:     a single inline part
//	+attachments:  multipart/mixed wrapping the above
func Compose(msg *Message, mode BodyMode, now time.Time) ([]byte, error) {
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid sender %q", msg.From)
	}
	to := make([]*mail.Address, 0, len(msg.To))
	for _, addr := range msg.To {
		a, err := mail.ParseAddress(addr)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid recipient %q", addr)
		}
		to = append(to, a)
	}
	if len(to) == 0 {
		return nil, ErrNoRecipient
	}

	var h mail.Header
	h.SetDate(now)
	if err := h.GenerateMessageID(); err != nil {
		return nil, errors.Wrap(err, "unable to generate the message id")
	}
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	h.SetSubject(msg.Subject)

	var buf bytes.Buffer
	if len(msg.Attachments) == 0 {
		if err := writeBody(&buf, h, msg, mode); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create mail writer")
	}
	if err := writeInline(mw, msg, mode); err != nil {
		return nil, err
	}
	for _, a := range msg.Attachments {
		var ah mail.AttachmentHeader
		ah.SetContentType(a.ContentType, nil)
		ah.SetFilename(a.Filename)
		w, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to attach %s", a.Filename)
		}
		if _, err := w.Write(a.Data); err != nil {
			return nil, errors.Wrapf(err, "unable to attach %s", a.Filename)
		}
		if err := w.Close(); err != nil {
			return nil, errors.Wrapf(err, "unable to attach %s", a.Filename)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "unable to close mail writer")
	}
	return buf.Bytes(), nil
}

// writeBody writes a message without attachments: the top level entity is
// the alternative or the single body itself.
func writeBody(w io.Writer, h mail.Header, msg *Message, mode BodyMode) error {
	if mode == BodyBoth {
		iw, err := mail.CreateInlineWriter(w, h)
		if err != nil {
			return errors.Wrap(err, "unable to create mail writer")
		}
		if err := writeAlternatives(iw, msg); err != nil {
			return err
		}
		return errors.Wrap(iw.Close(), "unable to close mail writer")
	}

	ct, body := singleBody(msg, mode)
	h.SetContentType(ct, utf8Params)
	bw, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return errors.Wrap(err, "unable to create mail writer")
	}
	if _, err := io.WriteString(bw, body); err != nil {
		return errors.Wrap(err, "unable to write body")
	}
	return errors.Wrap(bw.Close(), "unable to close mail writer")
}

func writeInline(mw *mail.Writer, msg *Message, mode BodyMode) error {
	if mode == BodyBoth {
		iw, err := mw.CreateInline()
		if err != nil {
			return errors.Wrap(err, "unable to create inline part")
		}
		if err := writeAlternatives(iw, msg); err != nil {
			return err
		}
		return errors.Wrap(iw.Close(), "unable to close inline part")
	}

	ct, body := singleBody(msg, mode)
	var ih mail.InlineHeader
	ih.SetContentType(ct, utf8Params)
	w, err := mw.CreateSingleInline(ih)
	if err != nil {
		return errors.Wrap(err, "unable to create inline part")
	}
	if _, err := io.WriteString(w, body); err != nil {
		return errors.Wrap(err, "unable to write body")
	}
	return errors.Wrap(w.Close(), "unable to close inline part")
}

// writeAlternatives writes text first, the preferred html alternative last.
func writeAlternatives(iw *mail.InlineWriter, msg *Message) error {
	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	}
	for _, p := range parts {
		var ih mail.InlineHeader
		ih.SetContentType(p.contentType, utf8Params)
		w, err := iw.CreatePart(ih)
		if err != nil {
			return errors.Wrapf(err, "unable to create %s part", p.contentType)
		}
		if _, err := io.WriteString(w, p.body); err != nil {
			return errors.Wrapf(err, "unable to write %s part", p.contentType)
		}
		if err := w.Close(); err != nil {
			return errors.Wrapf(err, "unable to close %s part", p.contentType)
		}
	}
	return nil
}

func singleBody(msg *Message, mode BodyMode) (string, string) {
	if mode == BodyHTML {
		return "text/html", msg.HTML
	}
	return "text/plain", msg.Text
}

func mailAddress(addr string) (string, error) {
	a, err := mail.ParseAddress(addr)
	if err != nil {
		return "", err
	}
	return a.Address, nil
}
