package scraper

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/extract"
)

const (
	nyHomeURL    = "https://www.e-zpassny.com"
	nyPayTollURL = "https://www.e-zpassny.com/tbm/pay-toll"
)

var nyAccountSelectors = []string{
	`input[name="accountNumber"]`,
	`#accountNumber`,
	`input[name*="account" i]`,
	`input[id*="account" i]`,
	`input[placeholder*="account" i]`,
	`input[placeholder*="toll bill" i]`,
	`input[type="text"]`,
}

var nyPlateSelectors = []string{
	`input[name="plateNumber"]`,
	`#plateNumber`,
	`input[name*="plate" i]`,
	`input[id*="plate" i]`,
	`input[placeholder*="plate" i]`,
}

var nySubmitSelectors = []string{
	`button[type="submit"]`,
	`input[type="submit"]`,
	`.btn-primary`,
	`.btn-submit`,
	`button.btn`,
}

// FetchNY looks up a NY toll bill by account number and plate on the
// public pay-toll page and normalizes whatever the results page shows.
func (s *ChromeScraper) FetchNY(ctx context.Context, accountNumber, plateNumber string) entity.ExtractionResult {
	log := s.Logger.WithFields(logrus.Fields{
		"source":  entity.SourceNY,
		"account": accountNumber,
		"plate":   plateNumber,
	})
	log.Info("starting NY lookup")

	tabCtx, cancels := s.newSession(ctx)
	defer func() {
		for _, c := range cancels {
			c()
		}
	}()

	// Load the homepage first so the site's session cookie exists before
	// the pay-toll form is requested.
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(nyHomeURL),
		chromedp.Sleep(2*time.Second),
		chromedp.Navigate(nyPayTollURL),
		chromedp.Sleep(3*time.Second),
	); err != nil {
		log.WithError(err).Error("failed to load NY pay-toll page")
		return entity.FailedExtraction(entity.SourceNY, "failed to load E-ZPass NY website")
	}

	if err := s.fillFirst(tabCtx, nyAccountSelectors, accountNumber); err != nil {
		log.WithError(err).Error("account input not found")
		return entity.FailedExtraction(entity.SourceNY, "could not find account number input")
	}
	if err := s.fillFirst(tabCtx, nyPlateSelectors, plateNumber); err != nil {
		log.WithError(err).Error("plate input not found")
		return entity.FailedExtraction(entity.SourceNY, "could not find plate number input")
	}

	if err := s.clickFirst(tabCtx, nySubmitSelectors); err != nil {
		// Some revisions of the form submit on Enter instead.
		if kerr := chromedp.Run(tabCtx, chromedp.SendKeys(nyPlateSelectors[len(nyPlateSelectors)-1], "\n", chromedp.ByQuery)); kerr != nil {
			log.WithError(err).Error("could not submit search form")
			return entity.FailedExtraction(entity.SourceNY, "could not submit search form")
		}
	}

	if err := chromedp.Run(tabCtx, chromedp.Sleep(8*time.Second)); err != nil {
		return entity.FailedExtraction(entity.SourceNY, "timed out waiting for results")
	}

	page, err := collectPage(tabCtx)
	if err != nil {
		log.WithError(err).Error("failed to read results page")
		return entity.FailedExtraction(entity.SourceNY, "failed to read results page")
	}

	result := extract.NewNormalizer(s.Logger).NormalizeNY(page, accountNumber, plateNumber)
	log.WithFields(logrus.Fields{
		"success":    result.Success,
		"balance":    result.BalanceAmount,
		"violations": result.ViolationCount,
	}).Info("NY lookup finished")
	return result
}
