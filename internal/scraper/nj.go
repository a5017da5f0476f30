package scraper

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/extract"
)

const njHomeURL = "https://www.ezpassnj.com/en/home/index.shtml"

// Opens the Invoice / Violations / Toll-by-Plate lookup from the NJ
// homepage. The link has no stable id, so match on its text.
const njInvoiceLinkScript = `(() => {
	for (const a of document.querySelectorAll('a')) {
		const t = a.innerText.toLowerCase();
		if (t.includes('invoice') || t.includes('violation')) {
			a.click();
			return true;
		}
	}
	return false;
})()`

var njViolationSelectors = []string{
	`input[name="notice_number"]`,
	`input[name*="notice"]`,
	`input[id*="notice"]`,
	`input[id*="invoice"]`,
	`input[placeholder*="Invoice" i]`,
	`input[type="text"]`,
}

var njPlateSelectors = []string{
	`input[name="tag_number"]`,
	`input[name*="tag"]`,
	`input[id*="tag"]`,
	`input[id*="plate"]`,
	`input[placeholder*="Plate" i]`,
}

var njSubmitSelectors = []string{
	`button[type="submit"]`,
	`input[type="submit"]`,
	`button[id*="view"]`,
	`button[class*="view"]`,
	`input[id*="view"]`,
	`input[class*="view"]`,
	`button`,
}

// FetchNJ looks up a NJ violation or invoice by its number and plate.
func (s *ChromeScraper) FetchNJ(ctx context.Context, violationNumber, plateNumber string) entity.ExtractionResult {
	log := s.Logger.WithFields(logrus.Fields{
		"source":    entity.SourceNJ,
		"violation": violationNumber,
		"plate":     plateNumber,
	})
	log.Info("starting NJ lookup")

	tabCtx, cancels := s.newSession(ctx)
	defer func() {
		for _, c := range cancels {
			c()
		}
	}()

	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(njHomeURL),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		log.WithError(err).Error("failed to load NJ homepage")
		return entity.FailedExtraction(entity.SourceNJ, "failed to load E-ZPass NJ website")
	}

	var clicked bool
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(njInvoiceLinkScript, &clicked)); err != nil || !clicked {
		log.Error("invoice/violation link not found")
		return entity.FailedExtraction(entity.SourceNJ, "could not find invoice/violation lookup")
	}

	// The lookup form loads in a modal a few seconds after the click.
	if err := chromedp.Run(tabCtx, chromedp.Sleep(8*time.Second)); err != nil {
		return entity.FailedExtraction(entity.SourceNJ, "timed out waiting for lookup form")
	}

	if err := s.fillFirst(tabCtx, njViolationSelectors, violationNumber); err != nil {
		log.WithError(err).Error("violation input not found")
		return entity.FailedExtraction(entity.SourceNJ, "could not find violation number input")
	}
	if err := s.fillFirst(tabCtx, njPlateSelectors, plateNumber); err != nil {
		log.WithError(err).Error("plate input not found")
		return entity.FailedExtraction(entity.SourceNJ, "could not find plate number input")
	}

	if err := s.clickFirst(tabCtx, njSubmitSelectors); err != nil {
		log.WithError(err).Error("could not submit lookup form")
		return entity.FailedExtraction(entity.SourceNJ, "could not submit lookup form")
	}

	if err := chromedp.Run(tabCtx, chromedp.Sleep(8*time.Second)); err != nil {
		return entity.FailedExtraction(entity.SourceNJ, "timed out waiting for results")
	}

	page, err := collectPage(tabCtx)
	if err != nil {
		log.WithError(err).Error("failed to read results page")
		return entity.FailedExtraction(entity.SourceNJ, "failed to read results page")
	}

	result := extract.NewNormalizer(s.Logger).NormalizeNJ(page, violationNumber, plateNumber)
	log.WithFields(logrus.Fields{
		"success": result.Success,
		"balance": result.BalanceAmount,
	}).Info("NJ lookup finished")
	return result
}
