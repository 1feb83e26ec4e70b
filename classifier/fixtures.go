// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package classifier

// NewMobClassifier returns the "mob tracking" reference classifier:
// riskClasses = {zombie, skeleton, creeper}, uncertaintyThreshold = 0.5,
// bands {<=1: critical, <=3: high, <=5: medium, else: low}.
func NewMobClassifier() *Classifier {
	return NewBandClassifier(
		[]string{"zombie", "skeleton", "creeper"},
		[]Band{
			{MaxProximity: 1, Level: RiskCritical},
			{MaxProximity: 3, Level: RiskHigh},
			{MaxProximity: 5, Level: RiskMedium},
		},
		0.5,
		false,
	)
}

// NewSecurityClassifier returns the "physical-security monitoring"
// reference classifier, a second domain unrelated to mob tracking used to
// prove the core carries no domain-specific assumptions. Risk-bearing
// labels are the entity classes a perimeter system cares about; bands are
// wider than the mob classifier's since security cameras track at
// greater range.
func NewSecurityClassifier() *Classifier {
	return NewBandClassifier(
		[]string{"intruder", "unauthorized_vehicle", "loitering_person"},
		[]Band{
			{MaxProximity: 2, Level: RiskCritical},
			{MaxProximity: 6, Level: RiskHigh},
			{MaxProximity: 12, Level: RiskMedium},
		},
		0.5,
		false,
	)
}
