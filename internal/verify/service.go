package verify

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/featcheck/featcheck/internal/githubapi"
)

const (
	runBannerTemplateConstant              = "Verifying %s/%s@%s\n"
	runDocumentTemplateConstant            = "Target document: %s\n"
	stepAnnouncementTemplateConstant       = "step %d/%d: %s\n"
	stepPassedTemplateConstant             = "ok: %s\n"
	stepFailedTemplateConstant             = "failed [%s]: %s\n"
	runSummaryHeaderConstant               = "verification passed\n"
	runSummaryTemplateConstant             = "summary: organization=%s repository=%s branch=%s document=%s features=%d expected_features=%d\n"
	totalStepCountConstant                 = 7
	describeFetchDocumentConstant          = "fetching feature document"
	describeRequiredSectionsConstant       = "checking required sections"
	describeParseTableConstant             = "parsing feature table"
	describeFeatureCountConstant           = "checking feature count"
	describeExpectedFeaturesConstant       = "checking expected features and SHAs"
	describeCommitDetailsConstant          = "checking commit details"
	describeTableStructureConstant         = "checking table structure"
	emptyDocumentDetailConstant            = "document fetch returned no content"
	documentSizeDetailTemplateConstant     = "fetched document (%d characters)"
	missingSectionDetailTemplateConstant   = "missing required section: %q"
	sectionsPresentDetailTemplateConstant  = "all %d required sections present"
	noRecordsDetailConstant                = "no feature records parsed from table"
	parsedRecordsDetailTemplateConstant    = "parsed %d feature records"
	countBelowMinimumDetailTemplate        = "feature count %d below configured minimum %d"
	countMeetsMinimumDetailTemplate        = "feature count %d meets minimum %d"
	featureMissingDetailTemplateConstant   = "expected feature %q not found in table"
	shaMismatchDetailTemplateConstant      = "feature %q sha mismatch: expected %s, actual %s"
	featuresMatchDetailTemplateConstant    = "all %d expected feature SHAs match"
	authorMismatchDetailTemplateConstant   = "commit %s author mismatch: expected %s, actual %s"
	tableMessageDetailTemplateConstant     = "commit %s table message mismatch: expected %q, actual %q"
	liveMessageDetailTemplateConstant      = "commit %s live message mismatch: expected %q, actual %q"
	dateFormatDetailTemplateConstant       = "feature %q date %q is not formatted as YYYY-MM-DD"
	dateMismatchDetailTemplateConstant     = "commit %s date mismatch: expected %s, actual %s"
	commitsVerifiedDetailTemplateConstant  = "verified %d tracked commits"
	structureFailureDetailTemplateConstant = "feature row has empty provenance fields: %+v"
	structureVerifiedDetailConstant        = "all rows carry name, sha, and author"
	stepPassedLogMessageConstant           = "verification step passed"
	stepFailedLogMessageConstant           = "verification step failed"
	verificationPassedLogMessageConstant   = "verification passed"
	verificationFailedLogMessageConstant   = "verification failed"
	logFieldStepConstant                   = "step"
	logFieldDetailConstant                 = "detail"
	logFieldRepositoryConstant             = "repository"
	logFieldBranchConstant                 = "branch"
	logFieldDocumentConstant               = "document"
	logFieldOrganizationConstant           = "organization"
	logFieldFeatureCountConstant           = "feature_count"
	logFieldExpectedFeatureCountConstant   = "expected_feature_count"
	shortSHALengthConstant                 = 8
	messageLineSeparatorConstant           = "\n"
)

// dateShapePattern checks digit grouping only; calendar validity of the named
// day is deliberately not enforced.
var dateShapePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ContentFetcher retrieves file content and commit metadata from the remote
// repository host.
type ContentFetcher interface {
	FetchFileContent(executionContext context.Context, repository string, filePath string, branch string) (string, error)
	GetCommit(executionContext context.Context, repository string, commitSHA string) (githubapi.CommitDetail, error)
}

// Service coordinates the sequential verification pipeline. Steps execute
// strictly in order and the run stops at the first failing step.
type Service struct {
	fetcher      ContentFetcher
	logger       *zap.Logger
	outputWriter io.Writer
	errorWriter  io.Writer
	organization string
}

// NewService constructs a Service using the provided dependencies.
func NewService(fetcher ContentFetcher, logger *zap.Logger, outputWriter io.Writer, errorWriter io.Writer, organization string) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	if errorWriter == nil {
		errorWriter = io.Discard
	}
	return &Service{
		fetcher:      fetcher,
		logger:       logger,
		outputWriter: outputWriter,
		errorWriter:  errorWriter,
		organization: organization,
	}
}

// Run executes the seven verification steps against the configured document
// and returns the structured report. Report.Passed is true only when every
// step passed.
func (service *Service) Run(executionContext context.Context, configuration CommandConfiguration) Report {
	report := Report{
		Organization: service.organization,
		Repository:   configuration.TargetRepository,
		Branch:       configuration.TargetBranch,
		DocumentPath: configuration.FeatureDocPath,
	}

	fmt.Fprintf(service.outputWriter, runBannerTemplateConstant, service.organization, configuration.TargetRepository, configuration.TargetBranch)
	fmt.Fprintf(service.outputWriter, runDocumentTemplateConstant, configuration.FeatureDocPath)

	service.announceStep(1, describeFetchDocumentConstant)
	documentContent, fetchResult := service.fetchDocument(executionContext, configuration)
	if !service.appendStep(&report, fetchResult) {
		return report
	}

	service.announceStep(2, describeRequiredSectionsConstant)
	if !service.appendStep(&report, checkRequiredSections(documentContent, configuration)) {
		return report
	}

	service.announceStep(3, describeParseTableConstant)
	parsedRecords, parseResult := parseDocumentTable(documentContent, configuration)
	report.FeatureCount = len(parsedRecords)
	if !service.appendStep(&report, parseResult) {
		return report
	}

	service.announceStep(4, describeFeatureCountConstant)
	if !service.appendStep(&report, checkFeatureCount(parsedRecords, configuration)) {
		return report
	}

	service.announceStep(5, describeExpectedFeaturesConstant)
	if !service.appendStep(&report, checkExpectedFeatures(parsedRecords, configuration)) {
		return report
	}

	service.announceStep(6, describeCommitDetailsConstant)
	if !service.appendStep(&report, service.checkCommitDetails(executionContext, parsedRecords, configuration)) {
		return report
	}

	service.announceStep(7, describeTableStructureConstant)
	if !service.appendStep(&report, checkTableStructure(parsedRecords)) {
		return report
	}

	report.Passed = true
	service.summarize(report, configuration)
	return report
}

func (service *Service) announceStep(stepNumber int, stepDescription string) {
	fmt.Fprintf(service.outputWriter, stepAnnouncementTemplateConstant, stepNumber, totalStepCountConstant, stepDescription)
}

// appendStep records the step outcome, narrates it, and reports whether the
// pipeline may continue.
func (service *Service) appendStep(report *Report, stepResult StepResult) bool {
	report.Steps = append(report.Steps, stepResult)

	if stepResult.Passed {
		fmt.Fprintf(service.outputWriter, stepPassedTemplateConstant, stepResult.Detail)
		service.logger.Info(
			stepPassedLogMessageConstant,
			zap.String(logFieldStepConstant, string(stepResult.Name)),
			zap.String(logFieldDetailConstant, stepResult.Detail),
		)
		return true
	}

	fmt.Fprintf(service.errorWriter, stepFailedTemplateConstant, stepResult.Name, stepResult.Detail)
	service.logger.Error(
		stepFailedLogMessageConstant,
		zap.String(logFieldStepConstant, string(stepResult.Name)),
		zap.String(logFieldDetailConstant, stepResult.Detail),
	)
	return false
}

func (service *Service) fetchDocument(executionContext context.Context, configuration CommandConfiguration) (string, StepResult) {
	documentContent, fetchError := service.fetcher.FetchFileContent(executionContext, configuration.TargetRepository, configuration.FeatureDocPath, configuration.TargetBranch)
	if fetchError != nil {
		return "", StepResult{Name: StepFetchDocument, Detail: fetchError.Error()}
	}
	if len(documentContent) == 0 {
		return "", StepResult{Name: StepFetchDocument, Detail: emptyDocumentDetailConstant}
	}
	return documentContent, StepResult{
		Name:   StepFetchDocument,
		Passed: true,
		Detail: fmt.Sprintf(documentSizeDetailTemplateConstant, len(documentContent)),
	}
}

func checkRequiredSections(documentContent string, configuration CommandConfiguration) StepResult {
	for _, requiredSection := range configuration.RequiredSections {
		if !strings.Contains(documentContent, requiredSection) {
			return StepResult{
				Name:   StepRequiredSections,
				Detail: fmt.Sprintf(missingSectionDetailTemplateConstant, requiredSection),
			}
		}
	}
	return StepResult{
		Name:   StepRequiredSections,
		Passed: true,
		Detail: fmt.Sprintf(sectionsPresentDetailTemplateConstant, len(configuration.RequiredSections)),
	}
}

func parseDocumentTable(documentContent string, configuration CommandConfiguration) ([]FeatureRecord, StepResult) {
	parsedRecords := ParseFeatureTable(documentContent, configuration.TableHeader)
	if len(parsedRecords) == 0 {
		return nil, StepResult{Name: StepParseTable, Detail: noRecordsDetailConstant}
	}
	return parsedRecords, StepResult{
		Name:   StepParseTable,
		Passed: true,
		Detail: fmt.Sprintf(parsedRecordsDetailTemplateConstant, len(parsedRecords)),
	}
}

func checkFeatureCount(parsedRecords []FeatureRecord, configuration CommandConfiguration) StepResult {
	if len(parsedRecords) < configuration.MinFeatureCount {
		return StepResult{
			Name:   StepFeatureCount,
			Detail: fmt.Sprintf(countBelowMinimumDetailTemplate, len(parsedRecords), configuration.MinFeatureCount),
		}
	}
	return StepResult{
		Name:   StepFeatureCount,
		Passed: true,
		Detail: fmt.Sprintf(countMeetsMinimumDetailTemplate, len(parsedRecords), configuration.MinFeatureCount),
	}
}

// buildFeatureLookup maps feature names to SHAs in document order. Later rows
// overwrite earlier ones, so the last occurrence of a duplicate name wins.
func buildFeatureLookup(parsedRecords []FeatureRecord) map[string]string {
	shaByName := make(map[string]string, len(parsedRecords))
	for _, parsedRecord := range parsedRecords {
		shaByName[parsedRecord.Name] = parsedRecord.SHA
	}
	return shaByName
}

func checkExpectedFeatures(parsedRecords []FeatureRecord, configuration CommandConfiguration) StepResult {
	shaByName := buildFeatureLookup(parsedRecords)

	expectedNames := make([]string, 0, len(configuration.ExpectedFeatures))
	for expectedName := range configuration.ExpectedFeatures {
		expectedNames = append(expectedNames, expectedName)
	}
	sort.Strings(expectedNames)

	for _, expectedName := range expectedNames {
		expectedSHA := configuration.ExpectedFeatures[expectedName]

		actualSHA, nameFound := shaByName[expectedName]
		if !nameFound {
			return StepResult{
				Name:   StepExpectedFeatures,
				Detail: fmt.Sprintf(featureMissingDetailTemplateConstant, expectedName),
			}
		}
		if actualSHA != expectedSHA {
			return StepResult{
				Name:   StepExpectedFeatures,
				Detail: fmt.Sprintf(shaMismatchDetailTemplateConstant, expectedName, shortSHA(expectedSHA), shortSHA(actualSHA)),
			}
		}
	}

	return StepResult{
		Name:   StepExpectedFeatures,
		Passed: true,
		Detail: fmt.Sprintf(featuresMatchDetailTemplateConstant, len(configuration.ExpectedFeatures)),
	}
}

// checkCommitDetails verifies author, message, and date claims for every
// parsed record whose SHA appears in the expected-author mapping. The table
// message and the live commit message must both match the expectation.
func (service *Service) checkCommitDetails(executionContext context.Context, parsedRecords []FeatureRecord, configuration CommandConfiguration) StepResult {
	verifiedCommitCount := 0

	for _, parsedRecord := range parsedRecords {
		expectedAuthor, commitTracked := configuration.ExpectedAuthors[parsedRecord.SHA]
		if !commitTracked {
			continue
		}

		commitDetail, commitError := service.fetcher.GetCommit(executionContext, configuration.TargetRepository, parsedRecord.SHA)
		if commitError != nil {
			return StepResult{Name: StepCommitDetails, Detail: commitError.Error()}
		}

		if commitDetail.AuthorLogin != expectedAuthor {
			return StepResult{
				Name:   StepCommitDetails,
				Detail: fmt.Sprintf(authorMismatchDetailTemplateConstant, shortSHA(parsedRecord.SHA), expectedAuthor, commitDetail.AuthorLogin),
			}
		}

		expectedMessage := configuration.ExpectedMessages[parsedRecord.SHA]
		if parsedRecord.Message != expectedMessage {
			return StepResult{
				Name:   StepCommitDetails,
				Detail: fmt.Sprintf(tableMessageDetailTemplateConstant, shortSHA(parsedRecord.SHA), expectedMessage, parsedRecord.Message),
			}
		}

		liveMessageFirstLine := firstMessageLine(commitDetail.Message)
		if liveMessageFirstLine != expectedMessage {
			return StepResult{
				Name:   StepCommitDetails,
				Detail: fmt.Sprintf(liveMessageDetailTemplateConstant, shortSHA(parsedRecord.SHA), expectedMessage, liveMessageFirstLine),
			}
		}

		// Format gate precedes the equality gate: a malformed date fails
		// here regardless of the expected value.
		if !dateShapePattern.MatchString(parsedRecord.Date) {
			return StepResult{
				Name:   StepCommitDetails,
				Detail: fmt.Sprintf(dateFormatDetailTemplateConstant, parsedRecord.Name, parsedRecord.Date),
			}
		}

		expectedDate := configuration.ExpectedDates[parsedRecord.SHA]
		if parsedRecord.Date != expectedDate {
			return StepResult{
				Name:   StepCommitDetails,
				Detail: fmt.Sprintf(dateMismatchDetailTemplateConstant, shortSHA(parsedRecord.SHA), expectedDate, parsedRecord.Date),
			}
		}

		verifiedCommitCount++
	}

	return StepResult{
		Name:   StepCommitDetails,
		Passed: true,
		Detail: fmt.Sprintf(commitsVerifiedDetailTemplateConstant, verifiedCommitCount),
	}
}

func checkTableStructure(parsedRecords []FeatureRecord) StepResult {
	for _, parsedRecord := range parsedRecords {
		if len(parsedRecord.Name) == 0 || len(parsedRecord.SHA) == 0 || len(parsedRecord.Author) == 0 {
			return StepResult{
				Name:   StepTableStructure,
				Detail: fmt.Sprintf(structureFailureDetailTemplateConstant, parsedRecord),
			}
		}
	}
	return StepResult{
		Name:   StepTableStructure,
		Passed: true,
		Detail: structureVerifiedDetailConstant,
	}
}

func (service *Service) summarize(report Report, configuration CommandConfiguration) {
	fmt.Fprint(service.outputWriter, runSummaryHeaderConstant)
	fmt.Fprintf(
		service.outputWriter,
		runSummaryTemplateConstant,
		report.Organization,
		report.Repository,
		report.Branch,
		report.DocumentPath,
		report.FeatureCount,
		len(configuration.ExpectedFeatures),
	)

	service.logger.Info(
		verificationPassedLogMessageConstant,
		zap.String(logFieldOrganizationConstant, report.Organization),
		zap.String(logFieldRepositoryConstant, report.Repository),
		zap.String(logFieldBranchConstant, report.Branch),
		zap.String(logFieldDocumentConstant, report.DocumentPath),
		zap.Int(logFieldFeatureCountConstant, report.FeatureCount),
		zap.Int(logFieldExpectedFeatureCountConstant, len(configuration.ExpectedFeatures)),
	)
}

func shortSHA(commitSHA string) string {
	if len(commitSHA) <= shortSHALengthConstant {
		return commitSHA
	}
	return commitSHA[:shortSHALengthConstant]
}

func firstMessageLine(commitMessage string) string {
	separatorIndex := strings.Index(commitMessage, messageLineSeparatorConstant)
	if separatorIndex < 0 {
		return commitMessage
	}
	return commitMessage[:separatorIndex]
}
