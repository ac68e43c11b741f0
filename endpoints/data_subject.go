package endpoints

import (
	"net/http"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"

	"github.com/trusted-server/trusted-server/analytics"
)

// SubjectIDHeader identifies the data subject on access and erasure requests.
const SubjectIDHeader = "X-Subject-ID"

// UserData is everything held about a data subject, returned on access
// requests as required by GDPR.
type UserData struct {
	VisitCount     int64                `json:"visit_count"`
	ConsentHistory []ConsentPreferences `json:"consent_history"`
}

// DataSubjectEndpoint serves GDPR data-subject access and erasure requests.
type DataSubjectEndpoint struct {
	visits analytics.VisitStore
}

func NewDataSubjectEndpoint(visits analytics.VisitStore) *DataSubjectEndpoint {
	return &DataSubjectEndpoint{visits: visits}
}

// Get returns all data held for the subject id.
func (e *DataSubjectEndpoint) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	subjectID := r.Header.Get(SubjectIDHeader)
	if subjectID == "" {
		http.Error(w, "Missing subject ID", http.StatusBadRequest)
		return
	}

	visitCount, err := e.visits.Visits(subjectID)
	if err != nil {
		glog.Errorf("Failed to read visit count for data subject request: %v", err)
		http.Error(w, "Failed to retrieve user data", http.StatusInternalServerError)
		return
	}

	data := map[string]UserData{
		subjectID: {
			VisitCount:     visitCount,
			ConsentHistory: []ConsentPreferences{},
		},
	}
	writeJSON(w, http.StatusOK, data)
}

// Delete handles the right to erasure.
func (e *DataSubjectEndpoint) Delete(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	subjectID := r.Header.Get(SubjectIDHeader)
	if subjectID == "" {
		http.Error(w, "Missing subject ID", http.StatusBadRequest)
		return
	}

	if err := e.visits.Delete(subjectID); err != nil {
		glog.Errorf("Failed to erase data subject %q: %v", subjectID, err)
		http.Error(w, "Failed to delete user data", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Data deletion request processed"))
}
