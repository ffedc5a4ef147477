package service

import (
	"errors"
	"testing"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
)

func TestCaptchaDisabledSceneAlwaysPasses(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{Provider: "none"})
	if svc.Enabled(constants.CaptchaSceneLogin) {
		t.Fatalf("provider none should disable every scene")
	}
	if err := svc.Verify(constants.CaptchaSceneLogin, CaptchaVerifyPayload{}); err != nil {
		t.Fatalf("disabled captcha should pass, got %v", err)
	}
	if _, err := svc.GenerateImageChallenge(); !errors.Is(err, ErrCaptchaConfigInvalid) {
		t.Fatalf("challenge without image provider should fail, got %v", err)
	}
}

func TestCaptchaImageRoundTrip(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{
		Provider: constants.CaptchaProviderImage,
		Scenes:   config.CaptchaSceneConfig{GuestCheckout: true},
	})
	if svc.Enabled(constants.CaptchaSceneLogin) || !svc.Enabled(constants.CaptchaSceneGuestCheckout) {
		t.Fatalf("scene switches not honored")
	}

	challenge, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate challenge failed: %v", err)
	}
	if challenge.CaptchaID == "" || challenge.ImageBase64 == "" {
		t.Fatalf("challenge should carry id and image")
	}
	if err := svc.Verify(constants.CaptchaSceneGuestCheckout, CaptchaVerifyPayload{}); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("missing captcha should be required, got %v", err)
	}
	if err := svc.Verify(constants.CaptchaSceneGuestCheckout, CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: "0000000"}); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("wrong captcha should be invalid, got %v", err)
	}

	second, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate challenge failed: %v", err)
	}
	answer := svc.store().Get(second.CaptchaID, false)
	if err := svc.Verify(constants.CaptchaSceneGuestCheckout, CaptchaVerifyPayload{CaptchaID: second.CaptchaID, CaptchaCode: answer}); err != nil {
		t.Fatalf("correct captcha should pass, got %v", err)
	}
	if err := svc.Verify(constants.CaptchaSceneGuestCheckout, CaptchaVerifyPayload{CaptchaID: second.CaptchaID, CaptchaCode: answer}); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("captcha should be single use, got %v", err)
	}
}
