package types

// VoiceMetrics is the acoustic feature vector returned by the voice analysis
// service. The backend stores it verbatim and only reads a handful of fields
// as contextual signal for the scoring prompt.
type VoiceMetrics struct {
  DurationSeconds   float64   `json:"duration_seconds"`
  RMS               float64   `json:"rms"`
  TempoBPM          float64   `json:"tempo_bpm"`
  MFCCsMean         []float64 `json:"mfccs_mean"`
  SpectralCentroid  float64   `json:"spectral_centroid"`
  SpectralBandwidth float64   `json:"spectral_bandwidth"`
  Rolloff           float64   `json:"rolloff"`
  ZCR               float64   `json:"zcr"`
  PitchMean         float64   `json:"pitch_mean"`
  PitchStd          float64   `json:"pitch_std"`
  JitterLocal       float64   `json:"jitter_local"`
  ShimmerLocal      float64   `json:"shimmer_local"`
  HNR               float64   `json:"hnr"`
  FormantF1         float64   `json:"formant_f1"`
  FormantF2         float64   `json:"formant_f2"`
  FormantF3         float64   `json:"formant_f3"`
}
