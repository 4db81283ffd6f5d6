package model_test

import (
	"encoding/json"
	"testing"

	model "github.com/ahadullabaig/Bean/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

func TestFacts(t *testing.T) {
	convey.Convey("Given extracted Facts", t, func() {
		convey.Convey("When fields were absent from the source", func() {
			facts := model.Facts{
				SpeakerName:     strptr("Dr. X"),
				AttendanceCount: intptr(45),
				Date:            strptr("2024-01-15"),
			}

			convey.Convey("Then absent fields stay nil and are omitted from JSON", func() {
				convey.So(facts.EventTitle, convey.ShouldBeNil)
				convey.So(facts.Venue, convey.ShouldBeNil)

				raw, err := json.Marshal(facts)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(raw), convey.ShouldNotContainSubstring, "event_title")
				convey.So(string(raw), convey.ShouldNotContainSubstring, "venue")
				convey.So(string(raw), convey.ShouldContainSubstring, `"speaker_name":"Dr. X"`)
				convey.So(string(raw), convey.ShouldContainSubstring, `"attendance_count":45`)
			})
		})

		convey.Convey("When ensuring the organizer default", func() {
			facts := model.Facts{}
			facts.EnsureOrganizer("")

			convey.Convey("Then the fixed organizational name is applied", func() {
				convey.So(facts.Organizer, convey.ShouldEqual, model.DefaultOrganizer)
			})
		})

		convey.Convey("When the source named an organizer", func() {
			facts := model.Facts{Organizer: "ACM Chapter"}
			facts.EnsureOrganizer("IEEE RIT Student Branch")

			convey.Convey("Then the extracted organizer is kept", func() {
				convey.So(facts.Organizer, convey.ShouldEqual, "ACM Chapter")
			})
		})
	})
}

func TestMode(t *testing.T) {
	convey.Convey("Given conduction modes", t, func() {
		convey.Convey("Then recognized values and unset are valid", func() {
			convey.So(model.Mode("").Valid(), convey.ShouldBeTrue)
			convey.So(model.ModeOnline.Valid(), convey.ShouldBeTrue)
			convey.So(model.ModeOffline.Valid(), convey.ShouldBeTrue)
			convey.So(model.ModeHybrid.Valid(), convey.ShouldBeTrue)
		})

		convey.Convey("Then anything else is invalid", func() {
			convey.So(model.Mode("virtual").Valid(), convey.ShouldBeFalse)
		})
	})
}

func TestNarrative(t *testing.T) {
	convey.Convey("Given a Narrative", t, func() {
		n := model.Narrative{
			ExecutiveSummary: "The workshop covered ML fundamentals.",
			KeyTakeaways:     []string{"Hands-on sessions", "Strong turnout"},
			Hashtags:         []string{"#ML", "#Workshop"},
		}

		convey.Convey("When rendered as text", func() {
			text := n.Text()

			convey.Convey("Then it contains the summary, takeaways, and hashtags", func() {
				convey.So(text, convey.ShouldContainSubstring, "ML fundamentals")
				convey.So(text, convey.ShouldContainSubstring, "- Hands-on sessions")
				convey.So(text, convey.ShouldContainSubstring, "#ML #Workshop")
			})
		})
	})
}

func TestVerdict(t *testing.T) {
	convey.Convey("Given Verdicts", t, func() {
		convey.Convey("Then a safe verdict with no issues is consistent", func() {
			v := model.Verdict{IsSafe: true, Confidence: 0.9, Reasoning: "all claims supported"}
			convey.So(v.Consistent(), convey.ShouldBeTrue)
		})

		convey.Convey("Then a safe verdict carrying issues violates the soft invariant", func() {
			v := model.Verdict{IsSafe: true, Confidence: 0.9, Issues: []string{"x"}, Reasoning: "r"}
			convey.So(v.Consistent(), convey.ShouldBeFalse)
		})

		convey.Convey("Then an unsafe verdict may carry issues", func() {
			v := model.Verdict{IsSafe: false, Confidence: 0.8, Issues: []string{"50 attendees unsupported"}, Reasoning: "r"}
			convey.So(v.Consistent(), convey.ShouldBeTrue)
		})
	})
}

func TestReport(t *testing.T) {
	convey.Convey("Given a Report moving through the pipeline", t, func() {
		r := model.Report{ID: "report-1", Status: model.StatusVerifying}

		convey.Convey("When a verdict is attached", func() {
			r.AttachVerdict(model.Verdict{IsSafe: true, Confidence: 0.87, Reasoning: "supported"})

			convey.Convey("Then the confidence score is overwritten and status is verified", func() {
				convey.So(r.ConfidenceScore, convey.ShouldEqual, 0.87)
				convey.So(r.Status, convey.ShouldEqual, model.StatusVerified)
				convey.So(r.Status.Terminal(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the report fails", func() {
			r.Fail(model.FailureRateLimited, "quota exhausted")

			convey.Convey("Then the failure kind and message are recorded", func() {
				convey.So(r.Status, convey.ShouldEqual, model.StatusFailed)
				convey.So(r.FailureKind, convey.ShouldEqual, model.FailureRateLimited)
				convey.So(r.FailureMessage, convey.ShouldEqual, "quota exhausted")
				convey.So(r.Status.Terminal(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("Then non-terminal states report as such", func() {
			convey.So(model.StatusQueued.Terminal(), convey.ShouldBeFalse)
			convey.So(model.StatusExtracting.Terminal(), convey.ShouldBeFalse)
			convey.So(model.StatusAwaitingReview.Terminal(), convey.ShouldBeFalse)
			convey.So(model.StatusNarrating.Terminal(), convey.ShouldBeFalse)
			convey.So(model.StatusVerifying.Terminal(), convey.ShouldBeFalse)
		})
	})
}
